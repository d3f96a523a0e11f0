package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/rpc"
	"github.com/kamelat/Netopeer2/pkg/session"
	"github.com/kamelat/Netopeer2/pkg/tree"
	"github.com/spf13/cobra"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke [file|-]",
	Short: "Send one operation or action to the backend",
	Long: `Reads an operation or an action envelope in JSON from the file, or from
standard input when the argument is "-" or missing, sends it through the
session and prints the reply.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sessionID, _ := cmd.Flags().GetString("session")
		mode, _ := cmd.Flags().GetString("with-defaults")

		var data []byte
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read request: %w", err)
		}

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		reply, err := a.invoke(cmd.Context(), sessionID, data, mode)
		if err != nil {
			return err
		}
		defer reply.Free()

		out, err := json.MarshalIndent(reply, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		if reply.Kind == rpc.ReplyError {
			return reply.Err
		}
		return nil
	},
}

// invoke decodes data as a request tree and runs it in the session.
// The caller frees the reply.
func (a *app) invoke(ctx context.Context, sessionID string, data []byte, mode string) (*rpc.Reply, error) {
	var override domain.WithDefaultsMode
	if mode != "" {
		m, err := domain.ParseWithDefaultsMode(mode)
		if err != nil {
			return nil, err
		}
		override = m
	}

	req, err := tree.DecodeJSON(a.schema, data, tree.DecodeOptions{AddDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	defer req.Free()

	var reply *rpc.Reply
	err = a.sessions.Do(ctx, sessionID, func(ctx context.Context, sess *session.Session) error {
		reply = a.coord.Handle(ctx, sess, req)
		return nil
	})
	if err != nil {
		reply.Free()
		return nil, err
	}
	if override != "" {
		reply.WithDefaults = override
	}
	return reply, nil
}

func init() {
	rootCmd.AddCommand(invokeCmd)
	invokeCmd.Flags().StringP("session", "s", "cli", "Session the call runs in")
	invokeCmd.Flags().String("with-defaults", "", "Default reporting mode of data replies (report-all, trim, explicit, report-all-tagged)")
}
