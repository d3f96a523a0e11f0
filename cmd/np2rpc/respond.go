package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kamelat/Netopeer2/pkg/domain"
	"github.com/kamelat/Netopeer2/pkg/ports"
	"github.com/kamelat/Netopeer2/pkg/record"
	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var respondCmd = &cobra.Command{
	Use:   "respond",
	Short: "Answer backend calls with canned replies",
	Long: `Subscribes to the operations and actions listed in a replies file and answers
every call queued for them with the configured output records or error.

Output record paths starting with "./" are relative to the called path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("replies")

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		replies, err := loadReplies(a.schema, path)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := a.responder()
		if err := registerReplies(ctx, r, replies); err != nil {
			return err
		}
		logger.Info("Answering backend calls", "targets", len(replies), "workers", cfg.Backend.Workers)
		return r.Serve(ctx)
	},
}

type repliesFile struct {
	Replies []cannedReply `yaml:"replies"`
}

// cannedReply is the fixed answer to every call of one operation or action.
type cannedReply struct {
	Path   string          `yaml:"path"`
	Output []record.Record `yaml:"output"`
	Error  *cannedError    `yaml:"error"`
}

type cannedError struct {
	Status  string `yaml:"status"`
	Message string `yaml:"message"`
	Path    string `yaml:"path"`
}

// loadReplies reads a replies file and checks every target against ctx.
func loadReplies(ctx *schema.Context, path string) ([]cannedReply, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replies: %w", err)
	}
	var f repliesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse replies %s: %w", path, err)
	}

	for _, r := range f.Replies {
		n, err := ctx.Find(r.Path, false)
		if err != nil {
			return nil, fmt.Errorf("reply for %s: %w", r.Path, err)
		}
		if !n.IsOperation() {
			return nil, fmt.Errorf("reply for %s: not an operation or action", r.Path)
		}
		if r.Error != nil {
			if _, ok := domain.ParseStatus(r.Error.Status); !ok {
				return nil, fmt.Errorf("reply for %s: unknown status %q", r.Path, r.Error.Status)
			}
		}
	}
	return f.Replies, nil
}

func registerReplies(ctx context.Context, reg ports.Registry, replies []cannedReply) error {
	for _, r := range replies {
		if err := reg.Register(ctx, r.Path, r.handler()); err != nil {
			return err
		}
	}
	return nil
}

func (c cannedReply) handler() ports.Handler {
	return func(ctx context.Context, req ports.Request) ([]record.Record, error) {
		if c.Error != nil {
			code, _ := domain.ParseStatus(c.Error.Status)
			return nil, &domain.BackendError{Code: code, Message: c.Error.Message, Path: c.Error.Path}
		}
		out := make([]record.Record, len(c.Output))
		for i, rec := range c.Output {
			if rest, ok := strings.CutPrefix(rec.Path, "./"); ok {
				rec.Path = req.Path + "/" + rest
			}
			out[i] = rec
		}
		return out, nil
	}
}

func init() {
	rootCmd.AddCommand(respondCmd)
	respondCmd.Flags().StringP("replies", "r", "replies.yaml", "YAML file with the canned replies")
}
