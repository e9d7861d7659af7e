// Package cmd defines the rotabak command-line interface.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/severin-lang/rotabak/pkg/buildinfo"
)

// Global flags shared by all subcommands. Flags are exposed for options that
// are useful to override for a single run; strategic options like retention
// counts live in the config file only.
var (
	targetFlag   string
	dryRunFlag   bool
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   buildinfo.Name,
	Short: "Scheduled backup rotation and job lifecycle orchestrator",
	Long: buildinfo.Name + ` classifies each run into a rotation tier (Monthly, Weekly,
Daily), prunes outdated backup sets, drives an external backup engine and
post-processes the produced set with compression and mirror synchronization.
Every run ends with a persisted job report.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command and returns the first error
// encountered. The context cancels in-flight stages on interrupt.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&targetFlag, "target", "", "backup root directory (required)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "show what would be done without making any changes")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override the configured log level: 'debug', 'notice', 'info', 'warn', 'error'")
}
