package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/severin-lang/rotabak/pkg/util"
)

// StateFileName is the name of the per-root run state file. It records the
// start time of the engine job consumed by the previous run, which is the
// only way to tell a fresh job-history entry from a stale one when the engine
// silently did nothing.
const StateFileName = ".rotabak.state.json"

type runState struct {
	LastEngineStart time.Time `json:"lastEngineStart"`
}

// ReadLastStart returns the engine start time recorded by the previous run.
// A missing state file is a normal condition (first run) and yields the zero
// time without an error.
func ReadLastStart(root string) (time.Time, error) {
	path := filepath.Join(root, StateFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("could not open state file %s: %w", path, err)
	}
	defer f.Close()

	var s runState
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return time.Time{}, fmt.Errorf("could not parse state file %s: %w. It may be corrupt", path, err)
	}
	return s.LastEngineStart, nil
}

// WriteLastStart persists the engine start time consumed by this run.
func WriteLastStart(root string, start time.Time) error {
	path := filepath.Join(root, StateFileName)
	data, err := json.MarshalIndent(runState{LastEngineStart: start}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal state: %w", err)
	}
	if err := os.WriteFile(path, data, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("could not write state file %s: %w", path, err)
	}
	return nil
}
