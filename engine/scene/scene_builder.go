package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLogger sets the scene's logger. Defaults to the engine-wide logger from the logging package.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(l *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.log = l
	}
}

// WithPinned suppresses the automatic unload of device resources when the last view
// deregisters.
//
// Parameters:
//   - pinned: true to keep resources loaded without views
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPinned(pinned bool) SceneBuilderOption {
	return func(s *scene) {
		s.pinned = pinned
	}
}

// WithMessenger attaches a messenger at creation. See Scene.AttachMessenger.
//
// Parameters:
//   - m: the messenger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMessenger(m *messaging.Messenger) SceneBuilderOption {
	return func(s *scene) {
		s.messenger = m
	}
}

// WithMaxFrameClock sets the value, in milliseconds, at which the frame clock wraps.
// Defaults to DefaultMaxFrameClock.
//
// Parameters:
//   - limit: the wrap value (values below 1 are ignored)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxFrameClock(limit uint64) SceneBuilderOption {
	return func(s *scene) {
		if limit > 0 {
			s.maxFrameClock = limit
		}
	}
}
