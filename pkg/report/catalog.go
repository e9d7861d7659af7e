package report

import "fmt"

// MsgID identifies one entry in the user-facing message catalog. Keeping the
// texts in one table keeps them data-driven and consistent across stages.
type MsgID int

const (
	MsgRunStart MsgID = iota
	MsgRotationDone
	MsgRotationDeleteFailed
	MsgInventoryUnreadable
	MsgEngineFault
	MsgEngineAmbiguous
	MsgEngineFailureCode
	MsgEngineSucceeded
	MsgCompressDone
	MsgCompressWarning
	MsgCompressNoSource
	MsgCompressFailed
	MsgSyncUnreachable
	MsgSyncCompareFailed
	MsgSyncFailed
	MsgSyncAlreadyCurrent
	MsgSyncVerified
	MsgSyncMismatch
	MsgNotifyFailed
	MsgPreflightFailed
)

var catalog = map[MsgID]string{
	MsgRunStart:             "run started: tier=%s set=%s",
	MsgRotationDone:         "rotation: removed %d outdated set(s), keeping at most %d",
	MsgRotationDeleteFailed: "rotation: failed to remove %s: %v",
	MsgInventoryUnreadable:  "inventory: backup root not readable (%v), assuming zero existing sets",
	MsgEngineFault:          "engine invocation failed: %v",
	MsgEngineAmbiguous:      "cannot determine engine result: no new job found, assuming failure",
	MsgEngineFailureCode:    "engine finished with result code %d, failure log: %s",
	MsgEngineSucceeded:      "engine finished successfully",
	MsgCompressDone:         "compression: archived set to %s",
	MsgCompressWarning:      "compression: archiver reported an anomaly, output saved to %s",
	MsgCompressNoSource:     "compression: produced set directory %s does not exist, stage skipped",
	MsgCompressFailed:       "compression: archiver failed (%v), set left uncompressed",
	MsgSyncUnreachable:      "synchronization: remote path %s not reachable: %v",
	MsgSyncCompareFailed:    "synchronization: listing comparison failed: %v",
	MsgSyncFailed:           "synchronization: mirror failed (%v), inspect %s",
	MsgSyncAlreadyCurrent:   "synchronization: destination already matches source, mirror skipped",
	MsgSyncVerified:         "synchronization: mirror verified, log: %s",
	MsgSyncMismatch:         "synchronization: listings still differ after mirror, inspect %s",
	MsgNotifyFailed:         "notification failed: %v",
	MsgPreflightFailed:      "preflight failed: %v",
}

// Render resolves a catalog entry and formats it with the given arguments.
func Render(id MsgID, args ...any) string {
	tmpl, ok := catalog[id]
	if !ok {
		return fmt.Sprintf("unknown message %d", id)
	}
	return fmt.Sprintf(tmpl, args...)
}
