package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "aegisd",
	Short: "Aegis - ethics clearance engine for autonomous agents",
	Long: `Aegis gates every action of an autonomous agent behind ethics evaluation.

It evaluates proposed actions, plans, goals, skill uses, research
activities, and self-modification requests against an immutable principle
catalog, and records every decision in an append-only audit log:
  - Pattern-based violation and concern detection
  - Per-kind decision trees with mandatory human-approval escalation
  - Append-only audit trail (memory or SQLite)
  - HTTP evaluation API with Prometheus metrics`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
