// Package resource holds per-device GPU resources. A scene keeps one Dictionary per loaded
// device and constructs an independent Resource instance for each of them; resources are
// never shared across devices.
package resource

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
)

var (
	// ErrNotFound is returned when a dictionary has no resource under the requested key.
	ErrNotFound = errors.New("resource: not found")
	// ErrTypeMismatch is returned when a resource exists but is not of the requested type.
	ErrTypeMismatch = errors.New("resource: type mismatch")
	// ErrExists is returned when adding a resource under a key that is already taken.
	ErrExists = errors.New("resource: key already exists")
)

// Resource is a device-bound resource managed by a Dictionary. Load and Unload are always
// called on the render driver goroutine.
type Resource interface {
	// Load creates the resource's device objects.
	//
	// Parameters:
	//   - d: the device owning the dictionary
	//
	// Returns:
	//   - error: error if the resource could not be created; the dictionary retries on the next render
	Load(d device.Device) error

	// Unload releases the resource's device objects. The resource may be loaded again later.
	Unload()

	// IsLoaded reports whether Load succeeded and Unload has not been called since.
	IsLoaded() bool
}

// Updatable is implemented by resources that animate per frame. Loaded updatable resources
// are updated during step four of Scene.Update.
type Updatable interface {
	// Update advances the resource by one frame.
	//
	// Parameters:
	//   - state: the current frame state
	Update(state *frame.UpdateState)
}
