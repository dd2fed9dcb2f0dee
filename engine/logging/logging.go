// Package logging holds the process-wide structured logger shared by every engine package.
// By default nothing is logged; call SetLogger to enable output.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled returns false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(Nop())
}

// Nop returns a logger that silently discards all output.
func Nop() *slog.Logger { return slog.New(nopHandler{}) }

// SetLogger configures the logger used by the engine and its sub-packages.
// Safe for concurrent use. Passing nil restores the silent default.
//
// Log levels used by the engine:
//   - [slog.LevelDebug]: queue drains, component attach/detach transitions
//   - [slog.LevelInfo]: lifecycle events (devices loaded, views registered, scene unloaded, profiler stats)
//   - [slog.LevelWarn]: recovered panics, resource load failures
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = Nop()
	}
	loggerPtr.Store(l)
}

// Logger returns the currently installed logger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger (never nil)
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
