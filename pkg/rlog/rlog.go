// Package rlog provides the application's leveled logging.
//
// Console output follows a level-dispatch scheme: INFO and below go to
// stdout, WARNING and above go to stderr. In addition, a FileSink can be
// attached to persist entries to the per-run log file and the monthly rollup
// log file required for job auditing.
package rlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LevelNotice sits between Info and Warn and is used for operational events
// (deletions, mirror invocations) that should stand out from plain progress.
const LevelNotice = slog.Level(2)

// LevelDispatchHandler is a slog.Handler that writes log records to different
// handlers based on the record's level. INFO and below go to one handler,
// while WARNING and above go to another.
type LevelDispatchHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
}

// Enabled checks if the level is enabled for either of the underlying handlers.
func (h *LevelDispatchHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the appropriate handler.
func (h *LevelDispatchHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.stderrHandler.Handle(ctx, r)
	}
	return h.stdoutHandler.Handle(ctx, r)
}

// WithAttrs returns a new LevelDispatchHandler with the given attributes added.
func (h *LevelDispatchHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
}

// WithGroup returns a new LevelDispatchHandler with the given group.
func (h *LevelDispatchHandler) WithGroup(name string) slog.Handler {
	return &LevelDispatchHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
}

var (
	defaultLogger *slog.Logger
	minLevel      = new(slog.LevelVar)

	sinkMu     sync.Mutex
	activeSink atomic.Pointer[FileSink]
)

func init() {
	// Handler for info-level logs (and below) to stdout.
	stdoutHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: minLevel,
	})

	// Handler for warning/error-level logs to stderr.
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})

	defaultLogger = slog.New(&LevelDispatchHandler{
		stdoutHandler: stdoutHandler,
		stderrHandler: stderrHandler,
	})
}

// SetOutput redirects the logger's console output, primarily for testing.
func SetOutput(w io.Writer) {
	minLevel.Set(slog.LevelDebug)
	defaultLogger = slog.New(slog.NewTextHandler(w, nil))
}

// SetLevel sets the minimum level for console output. File sinks always
// receive INFO and above regardless of the console level.
func SetLevel(l slog.Level) {
	minLevel.Set(l)
}

// LevelFromString maps a config string to a slog level. Unknown values
// default to Info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Attach installs a FileSink so that subsequent log calls are also persisted.
// Passing nil detaches the current sink.
func Attach(s *FileSink) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	activeSink.Store(s)
}

func log(level slog.Level, msg string, args ...any) {
	defaultLogger.Log(context.Background(), level, msg, args...)
	if s := activeSink.Load(); s != nil {
		s.write(level, format(msg, args...))
	}
}

// format renders a message plus key/value pairs into a single log line body.
func format(msg string, args ...any) string {
	if len(args) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	return b.String()
}

// Debug logs a debug message. Debug entries are never persisted to file sinks.
func Debug(msg string, args ...any) {
	defaultLogger.Log(context.Background(), slog.LevelDebug, msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	log(slog.LevelInfo, msg, args...)
}

// Notice logs an operational event.
func Notice(msg string, args ...any) {
	log(LevelNotice, msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	log(slog.LevelWarn, msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	log(slog.LevelError, msg, args...)
}
