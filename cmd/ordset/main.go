// Package main provides the entry point for the ordset CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/ordset/cmd/ordset/commands"
	"github.com/Sumatoshi-tech/ordset/pkg/version"
)

var (
	configPath string
	verbose    bool
	quiet      bool
)

func main() {
	version.InitBinaryVersion()

	rootCmd := &cobra.Command{
		Use:   "ordset",
		Short: "Ordset - order-statistics sets driven by scripts",
		Long: `Ordset runs command scripts against named order-statistics sets.

Commands:
  run       Execute a script and print query results
  verify    Execute a script and check tree invariants after every mutation
  stats     Execute a script and report per-set statistics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, commands.FlagConfig, "", "config file (default: ./ordset.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, commands.FlagVerbose, "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, commands.FlagQuiet, "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
