// Package main provides the xtreebench CLI, a wall-clock comparison of
// the arena-backed ordered key stores against the sorted-slice
// baseline across payload widths.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rootCmd := &cobra.Command{
		Use:   "xtreebench",
		Short: "Benchmark arena-backed ordered key stores",
		Long: `xtreebench times insert, search and remove over the red-black tree,
the plain binary search tree and the sorted-slice baseline, at several
payload widths, using one shared random key set per round.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCommand(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
