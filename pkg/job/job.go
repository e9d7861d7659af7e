// Package job drives one backup run from tier resolution to the final
// report.
//
// The pipeline is strictly sequential: rotation must complete before the
// engine runs, compression before synchronization compares listings. Stages
// fail independently and record their outcome into the shared JobResult; only
// the two engine-stage faults short-circuit, and even those exit through the
// reporter. Concurrent runs against the same backup root are not supported:
// rotation-then-create is not atomic, so deployment must guarantee a single
// scheduled invocation per root.
package job

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/severin-lang/rotabak/pkg/archiver"
	"github.com/severin-lang/rotabak/pkg/config"
	"github.com/severin-lang/rotabak/pkg/engine"
	"github.com/severin-lang/rotabak/pkg/inventory"
	"github.com/severin-lang/rotabak/pkg/mirror"
	"github.com/severin-lang/rotabak/pkg/preflight"
	"github.com/severin-lang/rotabak/pkg/report"
	"github.com/severin-lang/rotabak/pkg/rlog"
	"github.com/severin-lang/rotabak/pkg/rotation"
	"github.com/severin-lang/rotabak/pkg/util"
)

// Runner orchestrates one backup run.
type Runner struct {
	cfg      config.Config
	engine   engine.Engine
	archiver archiver.Archiver
	mirror   mirror.Tool
	notifier report.Notifier
	sink     *rlog.FileSink

	// Now is swappable for tests.
	Now func() time.Time
}

// NewRunner wires the orchestrator with its collaborators. sink may be nil;
// side logs then land in the OS temp directory.
func NewRunner(cfg config.Config, eng engine.Engine, arch archiver.Archiver, tool mirror.Tool, notifier report.Notifier, sink *rlog.FileSink) *Runner {
	return &Runner{
		cfg:      cfg,
		engine:   eng,
		archiver: arch,
		mirror:   tool,
		notifier: notifier,
		sink:     sink,
		Now:      time.Now,
	}
}

// Execute runs the full pipeline and always returns a finalized JobResult.
// Run failure is communicated through the report, not through an error: the
// only contract with the caller is that the run happened and was reported.
func (r *Runner) Execute(ctx context.Context) *report.JobResult {
	res := report.New(filepath.Join(r.cfg.BackupRoot, config.ConfigFileName))
	res.CompressEnabled = r.cfg.Compression.Enabled
	res.SyncEnabled = r.cfg.Sync.Enabled && r.cfg.Sync.RemotePath() != ""
	res.NotifyEnabled = r.cfg.Notify.Enabled
	if r.sink != nil {
		res.LogPath = r.sink.RunLogPath()
	}

	// The reporter is the last step on every exit path, including the
	// fatal ones below.
	defer r.finalizeAndReport(ctx, res)

	decision := rotation.Resolve(r.Now(), r.cfg.Host, r.cfg.Retention)
	mode := r.modeFor(decision.Tier)
	res.Tier = decision.Tier.String()
	res.SetName = decision.SetName
	res.BackupType = mode.String()
	res.Append(report.MsgRunStart, res.Tier, res.SetName)
	rlog.Info("Run classified", "tier", res.Tier, "set", res.SetName, "keep", decision.Keep, "mode", res.BackupType)

	if err := r.runPreflight(); err != nil {
		rlog.Error("Preflight failed", "error", err)
		res.Append(report.MsgPreflightFailed, err)
		res.Escalate(report.StateError)
		return res
	}

	r.runRotation(ctx, decision, res)

	setPath, ok := r.runEngine(ctx, decision, mode, res)
	if !ok {
		return res // Fatal engine outcome; skip post-processing.
	}

	r.runCompress(ctx, setPath, res)
	r.runSync(ctx, decision, res)
	return res
}

// modeFor maps the rotation tier to the engine backup type. In auto mode a
// Monthly run requests a full image, everything else captures system state.
func (r *Runner) modeFor(tier rotation.Tier) engine.Mode {
	switch r.cfg.Engine.Mode {
	case "bare-metal":
		return engine.BareMetal
	case "system-state":
		return engine.SystemState
	default:
		if tier == rotation.Monthly {
			return engine.BareMetal
		}
		return engine.SystemState
	}
}

func (r *Runner) runPreflight() error {
	root := r.cfg.BackupRoot
	if err := preflight.CheckBackupRoot(root); err != nil {
		return err
	}
	if err := preflight.CheckBackupRootWritable(root); err != nil {
		return err
	}
	minBytes := uint64(r.cfg.Engine.MinFreeSpaceGB) * 1024 * 1024 * 1024
	return preflight.CheckFreeSpace(root, minBytes)
}

// runRotation prunes existing sets of the current tier down to the retention
// count. An unreadable inventory is recoverable: logged, escalated to
// WARNING, treated as zero existing sets.
func (r *Runner) runRotation(ctx context.Context, decision rotation.Decision, res *report.JobResult) {
	sets, err := inventory.List(r.cfg.BackupRoot, r.cfg.Host, decision.Tier.String())
	if err != nil {
		rlog.Warn("Backup set inventory unreadable", "error", err)
		res.Append(report.MsgInventoryUnreadable, err)
		res.Escalate(report.StateWarning)
	}

	enforcer := rotation.Enforcer{DryRun: r.cfg.Runtime.DryRun}
	enforcer.Enforce(ctx, sets, decision.Keep, res)
}

// runEngine submits the backup to the external engine and maps its terminal
// status into the result. Returns the produced set path and false when the
// run must stop after reporting (invocation fault or unreadable result).
func (r *Runner) runEngine(ctx context.Context, decision rotation.Decision, mode engine.Mode, res *report.JobResult) (string, bool) {
	root := r.cfg.BackupRoot
	setPath := filepath.Join(root, decision.SetName)

	prevStart, err := engine.ReadLastStart(root)
	if err != nil {
		// A corrupt state file weakens the stale-result guard but does not
		// block the run.
		rlog.Warn("Cannot read run state, stale-result guard degraded", "error", err)
		res.Escalate(report.StateWarning)
	}

	if r.cfg.Runtime.DryRun {
		rlog.Notice("[DRY RUN] ENGINE", "mode", mode, "target", setPath)
		res.Append(report.MsgEngineSucceeded)
		return setPath, true
	}

	if err := r.engine.Submit(ctx, engine.Policy{Mode: mode, Destination: setPath}); err != nil {
		rlog.Error("Engine invocation failed", "error", err)
		res.Append(report.MsgEngineFault, err)
		res.Escalate(report.StateError)
		return "", false
	}

	info, err := r.engine.LastJob(ctx)
	if err != nil || info.Start.IsZero() || info.Start.Equal(prevStart) {
		// Either the history is unreadable or the newest entry is the one
		// the previous run already consumed: the engine silently did
		// nothing and there is no result to trust.
		if err != nil {
			rlog.Error("Engine job history unreadable", "error", err)
		}
		res.Append(report.MsgEngineAmbiguous)
		res.Escalate(report.StateError)
		return "", false
	}

	if err := engine.WriteLastStart(root, info.Start); err != nil {
		rlog.Warn("Cannot persist run state", "error", err)
		res.Escalate(report.StateWarning)
	}

	res.EngineCode = info.ResultCode
	if info.ResultCode != 0 {
		res.FailureLog = info.FailureLog
		res.Append(report.MsgEngineFailureCode, info.ResultCode, info.FailureLog)
		res.Escalate(report.StateError)
	} else {
		res.Append(report.MsgEngineSucceeded)
	}

	if info, err := os.Stat(setPath); err == nil && info.IsDir() {
		res.Artifact = setPath
	}
	return setPath, true
}

// runCompress archives the produced set directory and replaces it with the
// archive file. Only a missing source escalates to ERROR; every other
// anomaly is a WARNING so a bad compression never masks a good backup.
func (r *Runner) runCompress(ctx context.Context, setPath string, res *report.JobResult) {
	if !res.CompressEnabled {
		return
	}

	format, err := archiver.ParseFormat(r.cfg.Compression.Format)
	if err != nil {
		res.Append(report.MsgCompressFailed, err)
		res.SetCompression(report.StageWarning)
		return
	}
	destPath := setPath + format.Ext()

	if r.cfg.Runtime.DryRun {
		rlog.Notice("[DRY RUN] COMPRESS", "source", setPath, "dest", destPath)
		res.SetCompression(report.StageSuccessful)
		return
	}

	info, err := os.Stat(setPath)
	if err != nil || !info.IsDir() {
		res.Append(report.MsgCompressNoSource, setPath)
		res.SetCompression(report.StageError)
		return
	}

	result, err := r.archiver.Archive(ctx, setPath, destPath)
	if err != nil || !result.OK {
		if err == nil {
			err = fmt.Errorf("archiver reported failure")
		}
		rlog.Warn("Compression failed, set left uncompressed", "error", err)
		res.Append(report.MsgCompressFailed, err)
		res.SetCompression(report.StageWarning)
		return
	}

	clean := len(result.Output) > 0 &&
		strings.HasPrefix(result.Output[len(result.Output)-1], archiver.SuccessMarker)

	if !clean {
		// Soft failure: the archive exists but the archiver flagged an
		// anomaly. Persist its output for review; the source is still
		// replaced, not rolled back.
		sidePath := r.writeSideLog("archiver", result.Output)
		res.Append(report.MsgCompressWarning, sidePath)
		res.SetCompression(report.StageWarning)
	} else {
		res.Append(report.MsgCompressDone, destPath)
		res.SetCompression(report.StageSuccessful)
	}

	if err := os.RemoveAll(setPath); err != nil {
		rlog.Warn("Failed to remove compressed source directory", "path", setPath, "error", err)
		res.Escalate(report.StateWarning)
	}
	res.Artifact = destPath
}

// runSync mirrors the backup root to the remote destination and verifies
// parity by listing comparison. Idempotent: if the listings already match no
// mirror is invoked. Source data is never deleted.
func (r *Runner) runSync(ctx context.Context, decision rotation.Decision, res *report.JobResult) {
	if !res.SyncEnabled {
		return
	}

	remote := r.cfg.Sync.RemotePath()
	if err := mirror.Reachable(remote); err != nil {
		res.Append(report.MsgSyncUnreachable, remote, err)
		res.SetSynchronization(report.StageError)
		return
	}

	filter := mirror.TierScoped(r.cfg.Host, decision.Tier.String(), r.cfg.Sync.CompareExcludes)

	equal, err := mirror.Compare(ctx, r.cfg.BackupRoot, remote, filter)
	if err != nil {
		res.Append(report.MsgSyncCompareFailed, err)
		res.SetSynchronization(report.StageError)
		return
	}
	if equal {
		res.Append(report.MsgSyncAlreadyCurrent)
		res.SetSynchronization(report.StageSuccessful)
		return
	}

	if r.cfg.Runtime.DryRun {
		rlog.Notice("[DRY RUN] MIRROR", "source", r.cfg.BackupRoot, "dest", remote)
		res.SetSynchronization(report.StageSuccessful)
		return
	}

	lines, mirrorErr := r.mirror.Mirror(ctx, r.cfg.BackupRoot, remote)
	mirrorLog := r.writeSideLog("mirror", lines)
	if mirrorErr != nil {
		res.Append(report.MsgSyncFailed, mirrorErr, mirrorLog)
		res.SetSynchronization(report.StageError)
		return
	}

	equal, err = mirror.Compare(ctx, r.cfg.BackupRoot, remote, filter)
	if err != nil {
		res.Append(report.MsgSyncCompareFailed, err)
		res.SetSynchronization(report.StageError)
		return
	}
	if !equal {
		res.Append(report.MsgSyncMismatch, mirrorLog)
		res.SetSynchronization(report.StageError)
		return
	}

	res.Append(report.MsgSyncVerified, mirrorLog)
	res.SetSynchronization(report.StageSuccessful)
}

// writeSideLog persists auxiliary tool output next to the run log and
// returns its path.
func (r *Runner) writeSideLog(name string, lines []string) string {
	var path string
	if r.sink != nil {
		path = r.sink.SideLogPath(name)
	} else {
		path = filepath.Join(os.TempDir(), fmt.Sprintf("rotabak-%s.log", name))
	}
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), util.UserWritableFilePerms); err != nil {
		rlog.Warn("Failed to write side log", "path", path, "error", err)
	}
	return path
}

// finalizeAndReport applies the closing rules and hands the record to the
// reporter. No run terminates without passing through here.
func (r *Runner) finalizeAndReport(ctx context.Context, res *report.JobResult) {
	res.Finalize()

	rlog.Info("Job finished",
		"state", res.Overall,
		"tier", res.Tier,
		"engine_code", res.EngineCode,
		"compression", res.Compression,
		"synchronization", res.Synchronization,
		"removed_sets", len(res.RemovedSets),
		"duration", res.End.Sub(res.Start).Round(time.Millisecond),
	)

	if err := res.WriteFile(r.cfg.AbsLogDir()); err != nil {
		rlog.Warn("Failed to persist job report", "error", err)
	}

	if res.NotifyEnabled && r.notifier != nil {
		if err := r.notifier.Send(ctx, res); err != nil {
			// Never fatal: the report already exists on disk and in the log.
			rlog.Warn(report.Render(report.MsgNotifyFailed, err))
		}
	}
}
