// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// BoundingSphere is a world-space bounding volume used for per-view culling.
type BoundingSphere struct {
	// Center is the sphere center in world space.
	Center [3]float32
	// Radius is the sphere radius. A negative radius marks an unbounded object that is never culled.
	Radius float32
}

// Unbounded reports whether the sphere describes an object that should never be culled.
func (b BoundingSphere) Unbounded() bool {
	return b.Radius < 0
}

// InputEventType identifies the kind of an InputEvent.
type InputEventType int

const (
	// InputKeyDown is emitted when a key is pressed or repeats.
	InputKeyDown InputEventType = iota
	// InputKeyUp is emitted when a key is released.
	InputKeyUp
	// InputMouseMove is emitted when the cursor moves inside the view.
	InputMouseMove
	// InputMouseDown is emitted when a mouse button is pressed.
	InputMouseDown
	// InputMouseUp is emitted when a mouse button is released.
	InputMouseUp
	// InputScroll is emitted for mouse wheel movement.
	InputScroll
)

// InputEvent is a single polled input event. Only the fields relevant to Type are populated.
type InputEvent struct {
	Type InputEventType
	// KeyCode holds the virtual key code for key events (see key_codes.go).
	KeyCode uint32
	// Button holds the mouse button index for mouse button events.
	Button int
	// X and Y hold the cursor position in pixels for mouse events.
	X, Y int32
	// Delta holds the scroll amount for scroll events (positive = up).
	Delta float32
}

// InputFrame groups the input events polled from one view host between two updates.
type InputFrame struct {
	// ViewIndex is the index of the view the events belong to, or -1 if the host has no registered view.
	ViewIndex int
	// Events are the polled events in arrival order.
	Events []InputEvent
}

// KeyDown reports whether the frame contains a key-down event for the given key code.
//
// Parameters:
//   - keyCode: the virtual key code to look for
//
// Returns:
//   - bool: true if a matching InputKeyDown event exists
func (f InputFrame) KeyDown(keyCode uint32) bool {
	for _, e := range f.Events {
		if e.Type == InputKeyDown && e.KeyCode == keyCode {
			return true
		}
	}
	return false
}
