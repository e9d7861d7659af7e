package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/severin-lang/rotabak/pkg/config"
	"github.com/severin-lang/rotabak/pkg/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the report of the last backup run",
	Long: `Read the persisted job report from the backup root's log directory and
print its summary. Exits non-zero when no report has been written yet.`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	if targetFlag == "" {
		return fmt.Errorf("the --target flag is required for the report operation")
	}

	cfg, err := config.Load(targetFlag)
	if err != nil {
		return fmt.Errorf("failed to load configuration from target: %w", err)
	}

	res, err := report.ReadFile(cfg.AbsLogDir())
	if err != nil {
		return fmt.Errorf("no job report available: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Summary())
	return nil
}
