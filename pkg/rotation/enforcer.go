package rotation

import (
	"context"
	"os"

	"github.com/severin-lang/rotabak/pkg/inventory"
	"github.com/severin-lang/rotabak/pkg/report"
	"github.com/severin-lang/rotabak/pkg/rlog"
)

// Enforcer prunes existing backup sets of a tier down to the retention
// count, leaving room for the one new set the current run is about to create.
type Enforcer struct {
	DryRun bool
}

// Enforce removes the oldest sets while the count is at or above keep, so
// that at most keep-1 old sets remain (keep == 0 removes every set). Each
// removal is attempted independently: a failed deletion is recorded as a
// warning and the loop continues with the next-oldest candidate. The rotation
// outcome is always recorded into the result, including "0 removed".
//
// sets must be ordered oldest-first, as returned by inventory.List.
func (e *Enforcer) Enforce(ctx context.Context, sets []inventory.BackupSet, keep int, res *report.JobResult) {
	attempts := len(sets)
	if keep > 0 {
		attempts = len(sets) - (keep - 1)
	}
	if attempts < 0 {
		attempts = 0
	}

	removed := 0
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			res.Append(report.MsgRotationDone, removed, keep)
			return
		default:
		}

		set := sets[i]
		if e.DryRun {
			rlog.Notice("[DRY RUN] DELETE", "set", set.Name, "kind", set.Kind)
			continue
		}

		rlog.Notice("DELETE", "set", set.Name, "kind", set.Kind)
		err := os.RemoveAll(set.Path)
		res.RecordRemoval(set.Name, err)
		if err != nil {
			rlog.Warn("Failed to delete outdated backup set", "set", set.Name, "error", err)
			res.Append(report.MsgRotationDeleteFailed, set.Name, err)
			continue
		}
		removed++
	}

	res.Append(report.MsgRotationDone, removed, keep)
	rlog.Info("Rotation enforced", "removed", removed, "keep", keep, "existing", len(sets))
}
