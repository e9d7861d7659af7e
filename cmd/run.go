package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/severin-lang/rotabak/pkg/archiver"
	"github.com/severin-lang/rotabak/pkg/buildinfo"
	"github.com/severin-lang/rotabak/pkg/config"
	"github.com/severin-lang/rotabak/pkg/engine"
	"github.com/severin-lang/rotabak/pkg/job"
	"github.com/severin-lang/rotabak/pkg/mirror"
	"github.com/severin-lang/rotabak/pkg/notify"
	"github.com/severin-lang/rotabak/pkg/report"
	"github.com/severin-lang/rotabak/pkg/rlog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one backup run",
	Long: `Classify the current date into a rotation tier, prune outdated sets,
invoke the backup engine and post-process the result.

A failed job does not change the exit code: the outcome is communicated
through the log and the persisted job report. A non-zero exit means the run
itself could not be set up.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if targetFlag == "" {
		return fmt.Errorf("the --target flag is required to run a backup")
	}

	cfg, err := config.Load(targetFlag)
	if err != nil {
		return fmt.Errorf("failed to load configuration from target: %w", err)
	}
	cfg.Runtime.DryRun = dryRunFlag
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	rlog.SetLevel(rlog.LevelFromString(cfg.LogLevel))

	startTime := time.Now()
	sink, err := rlog.OpenFileSink(cfg.AbsLogDir(), startTime)
	if err != nil {
		// The sink fell back to the temp directory; the run continues.
		rlog.Warn("Run log not available in the configured log directory", "error", err)
	}
	if sink != nil {
		rlog.Attach(sink)
		defer sink.Close()
	}

	rlog.Info("Starting "+buildinfo.Name, "version", buildinfo.Version)
	cfg.LogSummary()

	var notifier report.Notifier = notify.LogNotifier{}
	if cfg.Notify.Enabled && cfg.Notify.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.From, cfg.Notify.To)
	}

	format, err := archiver.ParseFormat(cfg.Compression.Format)
	if err != nil {
		return err
	}
	level, err := archiver.ParseLevel(cfg.Compression.Level)
	if err != nil {
		return err
	}

	runner := job.NewRunner(
		cfg,
		engine.NewExecEngine(cfg.Engine.Command, cfg.Engine.Args),
		archiver.NewTarArchiver(format, level, 0),
		mirror.NewNativeMirror(0),
		notifier,
		sink,
	)

	res := runner.Execute(cmd.Context())
	duration := time.Since(startTime).Round(time.Millisecond)
	rlog.Info(buildinfo.Name+" finished.", "state", res.Overall, "duration", duration)
	return nil
}
