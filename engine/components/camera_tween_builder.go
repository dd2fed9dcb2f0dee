package components

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/tanema/gween/ease"
)

// CameraTweenOption is a functional option for configuring a CameraTween.
type CameraTweenOption func(*CameraTween)

// WithEasing sets the easing function of the flight. Defaults to ease.InOutQuad.
//
// Parameters:
//   - fn: the easing function
//
// Returns:
//   - CameraTweenOption: a function that applies the easing
func WithEasing(fn ease.TweenFunc) CameraTweenOption {
	return func(t *CameraTween) {
		if fn != nil {
			t.easing = fn
		}
	}
}

// WithOnDone registers a callback invoked on the driver when a view's flight finishes.
//
// Parameters:
//   - fn: the callback, receiving the view that arrived
//
// Returns:
//   - CameraTweenOption: a function that applies the callback
func WithOnDone(fn func(v *view.Info)) CameraTweenOption {
	return func(t *CameraTween) {
		t.onDone = fn
	}
}
