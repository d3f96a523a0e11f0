package main

import (
	"fmt"

	"github.com/kamelat/Netopeer2/pkg/schema"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect schema modules",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Load module files and list their operations and actions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := schema.Load(args...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "modules: %v\n", ctx.Modules())
		for _, path := range ctx.Operations() {
			fmt.Fprintln(out, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaCheckCmd)
}
