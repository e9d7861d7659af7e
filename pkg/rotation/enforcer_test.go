package rotation_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/severin-lang/rotabak/pkg/inventory"
	"github.com/severin-lang/rotabak/pkg/report"
	"github.com/severin-lang/rotabak/pkg/rlog"
	"github.com/severin-lang/rotabak/pkg/rotation"
)

func TestMain(m *testing.M) {
	rlog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// makeSets creates the named set directories under root, aged oldest-first,
// and returns the inventory listing.
func makeSets(t *testing.T, root string, names ...string) []inventory.BackupSet {
	t.Helper()
	base := time.Now().Add(-24 * time.Hour * time.Duration(len(names)))
	for i, name := range names {
		path := filepath.Join(root, name)
		if err := os.Mkdir(path, 0755); err != nil {
			t.Fatalf("Failed to create set dir: %v", err)
		}
		mod := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Failed to set mod time: %v", err)
		}
	}
	sets, err := inventory.List(root, "SRV01", "Weekly")
	if err != nil {
		t.Fatalf("Inventory listing failed: %v", err)
	}
	if len(sets) != len(names) {
		t.Fatalf("Expected %d sets, got %d", len(names), len(sets))
	}
	return sets
}

func remaining(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read root: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnforce(t *testing.T) {
	tests := []struct {
		name            string
		sets            []string
		keep            int
		dryRun          bool
		expectedRemoved []string
		expectedLeft    int
	}{
		{
			name:            "Three sets keep two leaves room for the new set",
			sets:            []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02", "SRV01-Weekly-W03"},
			keep:            2,
			expectedRemoved: []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02"},
			expectedLeft:    1,
		},
		{
			name:            "Retention zero removes every set",
			sets:            []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02"},
			keep:            0,
			expectedRemoved: []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02"},
			expectedLeft:    0,
		},
		{
			name:            "Fewer sets than retention removes nothing",
			sets:            []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02"},
			keep:            4,
			expectedRemoved: nil,
			expectedLeft:    2,
		},
		{
			name:            "Exactly at retention removes one to make room",
			sets:            []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02"},
			keep:            2,
			expectedRemoved: []string{"SRV01-Weekly-W01"},
			expectedLeft:    1,
		},
		{
			name:            "Dry run deletes nothing",
			sets:            []string{"SRV01-Weekly-W01", "SRV01-Weekly-W02", "SRV01-Weekly-W03"},
			keep:            1,
			dryRun:          true,
			expectedRemoved: nil,
			expectedLeft:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			sets := makeSets(t, root, tt.sets...)
			res := report.New("")

			enforcer := rotation.Enforcer{DryRun: tt.dryRun}
			enforcer.Enforce(context.Background(), sets, tt.keep, res)

			if len(res.RemovedSets) != len(tt.expectedRemoved) {
				t.Fatalf("Expected %d removed sets, got %v", len(tt.expectedRemoved), res.RemovedSets)
			}
			for i, name := range tt.expectedRemoved {
				if res.RemovedSets[i] != name {
					t.Errorf("Expected removal %d to be %s, got %s", i, name, res.RemovedSets[i])
				}
			}
			if left := remaining(t, root); len(left) != tt.expectedLeft {
				t.Errorf("Expected %d sets left on disk, got %v", tt.expectedLeft, left)
			}
			if res.Overall != report.StateUnset {
				t.Errorf("Clean rotation must not change the overall state, got %v", res.Overall)
			}

			// The rotation outcome must always be recorded, even for zero
			// removals.
			found := false
			for _, m := range res.Messages {
				if strings.HasPrefix(m, "rotation: removed") {
					found = true
				}
			}
			if !found {
				t.Error("Expected a rotation outcome message in the report")
			}
		})
	}
}

func TestEnforceKeepsNewestSets(t *testing.T) {
	root := t.TempDir()
	sets := makeSets(t, root, "SRV01-Weekly-W01", "SRV01-Weekly-W02", "SRV01-Weekly-W03", "SRV01-Weekly-W04")
	res := report.New("")

	enforcer := rotation.Enforcer{}
	enforcer.Enforce(context.Background(), sets, 2, res)

	left := remaining(t, root)
	if len(left) != 1 || left[0] != "SRV01-Weekly-W04" {
		t.Errorf("Expected only the newest set to survive, got %v", left)
	}
}

func TestEnforceCancelledContext(t *testing.T) {
	root := t.TempDir()
	sets := makeSets(t, root, "SRV01-Weekly-W01", "SRV01-Weekly-W02")
	res := report.New("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enforcer := rotation.Enforcer{}
	enforcer.Enforce(ctx, sets, 0, res)

	if left := remaining(t, root); len(left) != 2 {
		t.Errorf("Cancelled context must not delete sets, got %v left", left)
	}
}
