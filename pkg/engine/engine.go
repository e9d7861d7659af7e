// Package engine defines the contract with the external backup engine and a
// typed command-line adapter for it.
//
// The engine is the subsystem that actually captures a system image or the
// system state; this orchestrator only submits a policy and reads the
// engine's own job history afterwards.
package engine

import (
	"context"
	"time"
)

// Mode selects the backup type the engine should produce.
type Mode int

const (
	// SystemState captures the operating system state only.
	SystemState Mode = iota
	// BareMetal captures a full recoverable system image.
	BareMetal
)

func (m Mode) String() string {
	if m == BareMetal {
		return "bare-metal"
	}
	return "system-state"
}

// Policy describes one backup request.
type Policy struct {
	Mode Mode
	// Destination is the directory the engine writes the produced set into.
	Destination string
}

// JobInfo is the engine's record of one completed job.
type JobInfo struct {
	Start      time.Time
	End        time.Time
	ResultCode int
	// FailureLog is the engine's own failure log path, empty on success.
	FailureLog string
}

// Engine is the external backup engine contract. Submit runs synchronously;
// LastJob queries the engine's job history for the most recent completed job.
type Engine interface {
	Submit(ctx context.Context, policy Policy) error
	LastJob(ctx context.Context) (JobInfo, error)
}
