package batch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/batch/domain"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for batch and all its sub-packages.
// By default, batch produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior).
//
// Log levels used by batch:
//   - [slog.LevelDebug]: internal diagnostics (allocations, storage
//     growth, draw-list rebuilds)
//   - [slog.LevelInfo]: lifecycle events (domain created, domain pruned)
//   - [slog.LevelWarn]: non-fatal issues
//
// Example:
//
//	// Enable info-level logging to stderr:
//	batch.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	batch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to the domain and allocator packages so one call covers
	// the whole module.
	domain.SetLogger(l)
}

// Logger returns the current logger. It never returns nil; with no
// configured logger it returns the silent default.
func Logger() *slog.Logger { return loggerPtr.Load() }

// slogger returns the current package logger. All logging in this
// package goes through this function.
func slogger() *slog.Logger { return loggerPtr.Load() }
