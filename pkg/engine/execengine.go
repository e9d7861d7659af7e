package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/severin-lang/rotabak/pkg/rlog"
)

// ExecEngine adapts an external engine binary to the Engine interface.
//
// Arguments are passed as a typed slice and output is captured; no shell is
// involved. The binary is expected to understand two invocations:
//
//	<command> <args...> backup --mode <system-state|bare-metal> --target <dir>
//	<command> <args...> last-job
//
// where last-job prints a single JSON object:
//
//	{"startTime": "...", "endTime": "...", "resultCode": 0, "failureLog": ""}
type ExecEngine struct {
	command string
	args    []string
}

// Statically assert that *ExecEngine implements the Engine interface.
var _ Engine = (*ExecEngine)(nil)

// NewExecEngine creates an adapter for the given engine binary.
func NewExecEngine(command string, args []string) *ExecEngine {
	return &ExecEngine{command: command, args: args}
}

// Submit starts a backup synchronously and waits for the engine to finish.
// Only a failure to launch or an engine-level invocation fault surfaces as an
// error here; the job's own outcome is read afterwards via LastJob, because
// engines report result codes through their job history, not their exit.
func (e *ExecEngine) Submit(ctx context.Context, policy Policy) error {
	args := append(append([]string{}, e.args...),
		"backup", "--mode", policy.Mode.String(), "--target", policy.Destination)

	rlog.Notice("ENGINE", "command", e.command, "mode", policy.Mode, "target", policy.Destination)
	cmd := exec.CommandContext(ctx, e.command, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			// The engine ran and terminated; its verdict lives in the job
			// history. Non-zero exit here is not an invocation fault.
			rlog.Debug("Engine exited non-zero", "error", err)
			return nil
		}
		return fmt.Errorf("engine invocation failed: %w", err)
	}
	return nil
}

// lastJobPayload is the wire form of the engine's job-history record.
type lastJobPayload struct {
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	ResultCode int       `json:"resultCode"`
	FailureLog string    `json:"failureLog,omitempty"`
}

// LastJob queries the engine's job history for the most recent completed job.
func (e *ExecEngine) LastJob(ctx context.Context) (JobInfo, error) {
	args := append(append([]string{}, e.args...), "last-job")

	cmd := exec.CommandContext(ctx, e.command, args...)
	out, err := cmd.Output()
	if err != nil {
		return JobInfo{}, fmt.Errorf("engine job-history query failed: %w", err)
	}

	var payload lastJobPayload
	if err := json.Unmarshal(bytes.TrimSpace(out), &payload); err != nil {
		return JobInfo{}, fmt.Errorf("unreadable engine job history: %w", err)
	}

	return JobInfo{
		Start:      payload.StartTime,
		End:        payload.EndTime,
		ResultCode: payload.ResultCode,
		FailureLog: payload.FailureLog,
	}, nil
}
