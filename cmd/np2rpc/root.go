package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kamelat/Netopeer2/internal/config"
	"github.com/kamelat/Netopeer2/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "np2rpc",
	Short: "np2rpc bridges generic NETCONF operations and actions to a key/value backend",
	Long: `np2rpc forwards operations and actions that have no dedicated handler to a
flat key/value backend reached through Redis, and rebuilds schema-valid replies
from the records the backend answers with.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	rootCmd.PersistentFlags().StringSlice("schema", nil, "Module files; overrides the config")
}

// loadConfig reads the configuration named by the persistent flags and
// builds the logger it selects.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if files, _ := cmd.Flags().GetStringSlice("schema"); len(files) > 0 {
		cfg.Schema = files
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.NewWriter(cmd.ErrOrStderr(), level), nil
}
