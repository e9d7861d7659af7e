// Package report holds the single aggregate record of a backup run.
//
// Every pipeline stage writes into one JobResult via append-only or
// escalate-only operations; the finalized record is the run's only
// user-visible failure channel.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/severin-lang/rotabak/pkg/util"
)

// State is the overall run state. Escalation is monotone: once raised, the
// state never decreases. Successful is assigned only during finalization of a
// run that never escalated.
type State int

const (
	StateUnset State = iota
	StateSuccessful
	StateWarning
	StateError
)

func (s State) String() string {
	switch s {
	case StateSuccessful:
		return "SUCCESSFUL"
	case StateWarning:
		return "WARNING"
	case StateError:
		return "ERROR"
	default:
		return "UNSET"
	}
}

// StageStatus is the sub-status of an individually enabled pipeline stage.
type StageStatus int

const (
	StageUnset StageStatus = iota
	StageDisabled
	StageSuccessful
	StageWarning
	StageError
)

func (s StageStatus) String() string {
	switch s {
	case StageDisabled:
		return "DISABLED"
	case StageSuccessful:
		return "SUCCESSFUL"
	case StageWarning:
		return "WARNING"
	case StageError:
		return "ERROR"
	default:
		return "UNSET"
	}
}

// Removal records the outcome of one rotation delete attempt.
type Removal struct {
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Notifier delivers the finalized report to an external channel. A failing
// notifier is logged, never fatal to the run.
type Notifier interface {
	Send(ctx context.Context, result *JobResult) error
}

// JobResult is the aggregate record of one run.
type JobResult struct {
	RunID      string `json:"runID"`
	ConfigPath string `json:"configPath"`
	LogPath    string `json:"logPath"`

	BackupType string `json:"backupType"`
	Tier       string `json:"tier"`
	SetName    string `json:"setName"`

	CompressEnabled bool `json:"compressEnabled"`
	SyncEnabled     bool `json:"syncEnabled"`
	NotifyEnabled   bool `json:"notifyEnabled"`

	Overall    State     `json:"overall"`
	EngineCode int       `json:"engineCode"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`

	Artifact   string `json:"artifact,omitempty"`
	FailureLog string `json:"failureLog,omitempty"`

	Compression     StageStatus `json:"compression"`
	Synchronization StageStatus `json:"synchronization"`

	RemovedSets []string  `json:"removedSets"`
	Removals    []Removal `json:"removals"`

	Messages []string `json:"messages"`

	finalized bool
}

// New creates an empty JobResult for a run starting now.
func New(configPath string) *JobResult {
	return &JobResult{
		RunID:      uuid.NewString(),
		ConfigPath: configPath,
		Start:      time.Now(),
	}
}

// Escalate raises the overall state. Lower or equal severities are ignored,
// preserving the monotone escalation invariant.
func (r *JobResult) Escalate(s State) {
	if s > r.Overall {
		r.Overall = s
	}
}

// Append formats a catalog message and appends it to the message log.
func (r *JobResult) Append(id MsgID, args ...any) {
	r.Messages = append(r.Messages, Render(id, args...))
}

// RecordRemoval appends one rotation delete outcome. Failed removals escalate
// the overall state to at least WARNING.
func (r *JobResult) RecordRemoval(name string, err error) {
	if err != nil {
		r.Removals = append(r.Removals, Removal{Name: name, Error: err.Error()})
		r.Escalate(StateWarning)
		return
	}
	r.Removals = append(r.Removals, Removal{Name: name})
	r.RemovedSets = append(r.RemovedSets, name)
}

// SetCompression records the compress sub-status and escalates accordingly.
func (r *JobResult) SetCompression(s StageStatus) {
	r.Compression = s
	switch s {
	case StageWarning:
		r.Escalate(StateWarning)
	case StageError:
		r.Escalate(StateError)
	}
}

// SetSynchronization records the synchronize sub-status and escalates accordingly.
func (r *JobResult) SetSynchronization(s StageStatus) {
	r.Synchronization = s
	switch s {
	case StageWarning:
		r.Escalate(StateWarning)
	case StageError:
		r.Escalate(StateError)
	}
}

// Finalize applies the closing rules: stages that were never enabled are
// forced to DISABLED, and a run that never escalated is SUCCESSFUL. Safe to
// call once; later calls are no-ops.
func (r *JobResult) Finalize() {
	if r.finalized {
		return
	}
	r.finalized = true
	r.End = time.Now()

	if !r.CompressEnabled {
		r.Compression = StageDisabled
	}
	if !r.SyncEnabled {
		r.Synchronization = StageDisabled
	}
	if r.Overall == StateUnset {
		r.Overall = StateSuccessful
	}
}

// Summary renders the human-readable report body.
func (r *JobResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run:             %s\n", r.RunID)
	fmt.Fprintf(&b, "Overall:         %s\n", r.Overall)
	fmt.Fprintf(&b, "Tier:            %s\n", r.Tier)
	fmt.Fprintf(&b, "Backup type:     %s\n", r.BackupType)
	fmt.Fprintf(&b, "Set:             %s\n", r.SetName)
	fmt.Fprintf(&b, "Engine code:     %d\n", r.EngineCode)
	fmt.Fprintf(&b, "Started:         %s\n", r.Start.Format("2006-01-02 15:04:05"))
	if !r.End.IsZero() {
		fmt.Fprintf(&b, "Finished:        %s\n", r.End.Format("2006-01-02 15:04:05"))
	}
	if r.Artifact != "" {
		fmt.Fprintf(&b, "Artifact:        %s\n", r.Artifact)
	}
	if r.FailureLog != "" {
		fmt.Fprintf(&b, "Failure log:     %s\n", r.FailureLog)
	}
	fmt.Fprintf(&b, "Compression:     %s\n", r.Compression)
	fmt.Fprintf(&b, "Synchronization: %s\n", r.Synchronization)
	fmt.Fprintf(&b, "Removed sets:    %d (%s)\n", len(r.RemovedSets), strings.Join(r.RemovedSets, ", "))
	if r.LogPath != "" {
		fmt.Fprintf(&b, "Log:             %s\n", r.LogPath)
	}
	if len(r.Messages) > 0 {
		b.WriteString("Messages:\n")
		for _, m := range r.Messages {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	return b.String()
}

// ReportFileName is the name of the persisted report in the log directory.
const ReportFileName = "rotabak.last-report.json"

// WriteFile persists the finalized report as JSON into dir.
func (r *JobResult) WriteFile(dir string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}
	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, data, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("could not write report file %s: %w", path, err)
	}
	return nil
}

// ReadFile loads the most recent persisted report from dir.
func ReadFile(dir string) (*JobResult, error) {
	path := filepath.Join(dir, ReportFileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, err // Return the original error so os.IsNotExist works.
	}
	defer f.Close()

	var r JobResult
	if err := json.NewDecoder(f).Decode(&r); err != nil {
		return nil, fmt.Errorf("could not parse report file %s: %w", path, err)
	}
	return &r, nil
}
