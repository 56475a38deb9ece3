// Package cmd implements the costbook CLI
package cmd

import (
	"fmt"
	"os"

	"costbook/config"

	"github.com/spf13/cobra"
)

var cfg *config.AppConfig

var rootCmd = &cobra.Command{
	Use:   "costbook",
	Short: "Build priced project lists from product links and names",
	Long: `costbook resolves product links or product names to a price, collects
them into a project with quantities, and exports the result.

Usage:
  costbook serve
  costbook resolve --link <url>
  costbook batch <file> --project <name> --out <file>`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
