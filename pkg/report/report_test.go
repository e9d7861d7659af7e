package report_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/severin-lang/rotabak/pkg/report"
)

func TestEscalateIsMonotone(t *testing.T) {
	res := report.New("")

	if res.Overall != report.StateUnset {
		t.Fatalf("Expected a fresh result to be UNSET, got %v", res.Overall)
	}

	res.Escalate(report.StateWarning)
	if res.Overall != report.StateWarning {
		t.Errorf("Expected WARNING, got %v", res.Overall)
	}

	// Lower severity never wins.
	res.Escalate(report.StateSuccessful)
	if res.Overall != report.StateWarning {
		t.Errorf("Expected WARNING to stick, got %v", res.Overall)
	}

	res.Escalate(report.StateError)
	if res.Overall != report.StateError {
		t.Errorf("Expected ERROR, got %v", res.Overall)
	}

	res.Escalate(report.StateWarning)
	if res.Overall != report.StateError {
		t.Errorf("Expected ERROR to stick, got %v", res.Overall)
	}
}

func TestFinalize(t *testing.T) {
	tests := []struct {
		name            string
		prepare         func(*report.JobResult)
		expectedOverall report.State
		expectedComp    report.StageStatus
		expectedSync    report.StageStatus
	}{
		{
			name:            "Clean run with both stages disabled",
			prepare:         func(r *report.JobResult) {},
			expectedOverall: report.StateSuccessful,
			expectedComp:    report.StageDisabled,
			expectedSync:    report.StageDisabled,
		},
		{
			name: "Clean run with both stages successful",
			prepare: func(r *report.JobResult) {
				r.CompressEnabled = true
				r.SyncEnabled = true
				r.SetCompression(report.StageSuccessful)
				r.SetSynchronization(report.StageSuccessful)
			},
			expectedOverall: report.StateSuccessful,
			expectedComp:    report.StageSuccessful,
			expectedSync:    report.StageSuccessful,
		},
		{
			name: "Compression warning degrades the overall state",
			prepare: func(r *report.JobResult) {
				r.CompressEnabled = true
				r.SetCompression(report.StageWarning)
			},
			expectedOverall: report.StateWarning,
			expectedComp:    report.StageWarning,
			expectedSync:    report.StageDisabled,
		},
		{
			name: "Synchronization error degrades the overall state",
			prepare: func(r *report.JobResult) {
				r.SyncEnabled = true
				r.SetSynchronization(report.StageError)
			},
			expectedOverall: report.StateError,
			expectedComp:    report.StageDisabled,
			expectedSync:    report.StageError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := report.New("")
			tt.prepare(res)
			res.Finalize()

			if res.Overall != tt.expectedOverall {
				t.Errorf("Expected overall %v, got %v", tt.expectedOverall, res.Overall)
			}
			if res.Compression != tt.expectedComp {
				t.Errorf("Expected compression %v, got %v", tt.expectedComp, res.Compression)
			}
			if res.Synchronization != tt.expectedSync {
				t.Errorf("Expected synchronization %v, got %v", tt.expectedSync, res.Synchronization)
			}
			if res.End.IsZero() {
				t.Error("Expected finalize to set the end time")
			}
		})
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	res := report.New("")
	res.Finalize()
	end := res.End

	res.Finalize()
	if !res.End.Equal(end) {
		t.Error("Expected a second finalize to be a no-op")
	}
}

func TestRecordRemoval(t *testing.T) {
	res := report.New("")

	res.RecordRemoval("SRV01-Daily-W01-Tuesday", nil)
	res.RecordRemoval("SRV01-Daily-W01-Wednesday", errors.New("permission denied"))

	if len(res.RemovedSets) != 1 || res.RemovedSets[0] != "SRV01-Daily-W01-Tuesday" {
		t.Errorf("Expected only the successful removal in RemovedSets, got %v", res.RemovedSets)
	}
	if len(res.Removals) != 2 {
		t.Fatalf("Expected both attempts recorded, got %d", len(res.Removals))
	}
	if res.Removals[1].Error == "" {
		t.Error("Expected the failed removal to carry its error")
	}
	if res.Overall != report.StateWarning {
		t.Errorf("Expected a failed removal to escalate to WARNING, got %v", res.Overall)
	}
}

func TestAppendRendersCatalogMessages(t *testing.T) {
	res := report.New("")
	res.Append(report.MsgRotationDone, 3, 4)

	if len(res.Messages) != 1 {
		t.Fatalf("Expected one message, got %d", len(res.Messages))
	}
	if !strings.Contains(res.Messages[0], "removed 3") || !strings.Contains(res.Messages[0], "at most 4") {
		t.Errorf("Unexpected rendered message: %q", res.Messages[0])
	}
}

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()

	res := report.New("/backups/rotabak.config.json")
	res.Tier = "Weekly"
	res.SetName = "SRV01-Weekly-W12"
	res.Escalate(report.StateWarning)
	res.Finalize()

	if err := res.WriteFile(dir); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	loaded, err := report.ReadFile(dir)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if loaded.RunID != res.RunID {
		t.Errorf("Expected run ID %s, got %s", res.RunID, loaded.RunID)
	}
	if loaded.SetName != res.SetName {
		t.Errorf("Expected set name %s, got %s", res.SetName, loaded.SetName)
	}
	if loaded.Overall != report.StateWarning {
		t.Errorf("Expected WARNING, got %v", loaded.Overall)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := report.ReadFile(t.TempDir()); err == nil {
		t.Fatal("Expected an error when no report exists")
	}
}

func TestSummaryContainsMessages(t *testing.T) {
	res := report.New("")
	res.Tier = "Daily"
	res.SetName = "SRV01-Daily-W12-Wednesday"
	res.Append(report.MsgEngineSucceeded)
	res.Finalize()

	summary := res.Summary()
	for _, want := range []string{"SUCCESSFUL", "Daily", "SRV01-Daily-W12-Wednesday", "engine finished successfully"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, summary)
		}
	}
}
