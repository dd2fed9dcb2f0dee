package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often samples are taken. Non-positive values keep the default.
//
// Parameters:
//   - d: the sample interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithLogger sets the logger samples are written to instead of the engine logger.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.log = l
	}
}

// WithClock replaces the time source.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
