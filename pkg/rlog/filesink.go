package rlog

import (
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/severin-lang/rotabak/pkg/buildinfo"
	"github.com/severin-lang/rotabak/pkg/util"
)

// File sink formats. Entries are line-oriented and append-only:
//
//	2006-01-02 15:04:05 INFO message key=value
//
// Each run writes a fixed header block (tool, start time, host, user) before
// the first entry.
const (
	runFileFormat   = "20060102-150405"
	monthFileFormat = "200601"
	entryTimeFormat = "2006-01-02 15:04:05"
)

// FileSink persists log entries to a per-run log file plus a monthly rollup
// file shared by all runs of the same calendar month.
type FileSink struct {
	mu     sync.Mutex
	runF   *os.File
	monthF *os.File

	runPath string
}

// OpenFileSink creates the per-run log file and opens (appending) the monthly
// rollup file in dir. If dir cannot be created, the sink falls back to the OS
// temp directory; the returned error reports the fallback but the sink is
// still usable (recoverable condition, not fatal).
func OpenFileSink(dir string, start time.Time) (*FileSink, error) {
	var fallbackErr error
	if err := os.MkdirAll(dir, util.UserWritableDirPerms); err != nil {
		fallbackErr = fmt.Errorf("cannot create log directory %s, falling back to temp: %w", dir, err)
		dir = filepath.Join(os.TempDir(), buildinfo.Name+"-logs")
		if err := os.MkdirAll(dir, util.UserWritableDirPerms); err != nil {
			return nil, fmt.Errorf("cannot create fallback log directory %s: %w", dir, err)
		}
	}

	runPath := filepath.Join(dir, fmt.Sprintf("%s-%s.log", buildinfo.Name, start.Format(runFileFormat)))
	runF, err := os.OpenFile(runPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return nil, fmt.Errorf("cannot create run log file %s: %w", runPath, err)
	}

	monthPath := filepath.Join(dir, fmt.Sprintf("%s-%s.log", buildinfo.Name, start.Format(monthFileFormat)))
	monthF, err := os.OpenFile(monthPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		runF.Close()
		return nil, fmt.Errorf("cannot open monthly log file %s: %w", monthPath, err)
	}

	s := &FileSink{runF: runF, monthF: monthF, runPath: runPath}
	s.writeHeader(start)
	return s, fallbackErr
}

// RunLogPath returns the absolute path of the per-run log file.
func (s *FileSink) RunLogPath() string {
	return s.runPath
}

// SideLogPath returns a path next to the run log for auxiliary tool output
// (e.g. archiver or mirror output), derived from the run log name.
func (s *FileSink) SideLogPath(suffix string) string {
	base := s.runPath[:len(s.runPath)-len(filepath.Ext(s.runPath))]
	return base + "-" + suffix + ".log"
}

// Close flushes and closes both log files.
func (s *FileSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runF != nil {
		s.runF.Close()
		s.runF = nil
	}
	if s.monthF != nil {
		s.monthF.Close()
		s.monthF = nil
	}
}

// writeHeader writes the fixed header block to both files.
func (s *FileSink) writeHeader(start time.Time) {
	host, _ := os.Hostname()
	username := "unknown"
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	header := fmt.Sprintf("==== %s %s ==== start=%s host=%s user=%s\n",
		buildinfo.Name, buildinfo.Version, start.Format(entryTimeFormat), host, username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runF != nil {
		s.runF.WriteString(header)
	}
	if s.monthF != nil {
		s.monthF.WriteString(header)
	}
}

// write appends a single leveled entry to both files. Notice entries are
// persisted as INFO; the file format knows only INFO, WARNING and ERROR.
func (s *FileSink) write(level slog.Level, body string) {
	var label string
	switch {
	case level >= slog.LevelError:
		label = "ERROR"
	case level >= slog.LevelWarn:
		label = "WARNING"
	default:
		label = "INFO"
	}

	line := fmt.Sprintf("%s %s %s\n", time.Now().Format(entryTimeFormat), label, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runF != nil {
		s.runF.WriteString(line)
	}
	if s.monthF != nil {
		s.monthF.WriteString(line)
	}
}
