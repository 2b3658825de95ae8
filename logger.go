package rayengine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/rayengine/internal/gpu"
	"github.com/gogpu/rayengine/internal/parallel"
	"github.com/gogpu/rayengine/internal/trace"
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

// SetLogger configures the logger for rayengine and all its sub-packages.
// By default, rayengine produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by rayengine:
//   - [slog.LevelDebug]: per-frame diagnostics (pool start/stop, tile timings)
//   - [slog.LevelInfo]: lifecycle events (adapter selected, engine stopped)
//   - [slog.LevelWarn]: non-fatal issues (camera upload failed)
//   - [slog.LevelError]: a script or camera job panicked
//
// Example:
//
//	rayengine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	parallel.SetLogger(l)
	gpu.SetLogger(l)
	trace.SetLogger(l)
}

// Logger returns the current logger used by rayengine.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// slogger is the package-internal shorthand for Logger.
func slogger() *slog.Logger { return loggerPtr.Load() }
