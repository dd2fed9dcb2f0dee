package view

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
)

// Unregistered is the view index of a view that is not registered with a scene.
const Unregistered = -1

// Info describes one view onto a scene: the device it renders on, the camera it looks
// through, the filters that decide which objects it sees, and its viewport size.
// A scene assigns the view index on registration and clears it on deregistration.
// Thread-safe for concurrent access.
type Info struct {
	mu *sync.RWMutex

	name    string
	device  device.Device
	camera  camera.Camera
	filters []Filter

	width, height int
	index         int

	// stateVersion is bumped when the camera, filter list or viewport changes.
	stateVersion uint64
}

// New creates a view rendering on d through cam. Both are required.
//
// Parameters:
//   - d: the device the view renders on (must not be nil)
//   - cam: the camera the view looks through (must not be nil)
//   - options: functional options to further configure the view
//
// Returns:
//   - *Info: the new, unregistered view
func New(d device.Device, cam camera.Camera, options ...ViewBuilderOption) *Info {
	if d == nil {
		panic("view: New requires a non-nil Device")
	}
	if cam == nil {
		panic("view: New requires a non-nil Camera")
	}
	v := &Info{
		mu:     &sync.RWMutex{},
		device: d,
		camera: cam,
		width:  1,
		height: 1,
		index:  Unregistered,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

func (v *Info) Name() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.name
}

func (v *Info) Device() device.Device {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.device
}

func (v *Info) Camera() camera.Camera {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.camera
}

// SetCamera swaps the camera and marks the view state changed.
func (v *Info) SetCamera(cam camera.Camera) {
	if cam == nil {
		panic("view: SetCamera requires a non-nil Camera")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.camera = cam
	v.stateVersion++
}

// Filters returns a copy of the view's filter list.
func (v *Info) Filters() []Filter {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Filter, len(v.filters))
	copy(out, v.filters)
	return out
}

// AddFilter appends a filter. Objects must pass every filter to be visible.
func (v *Info) AddFilter(f Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = append(v.filters, f)
	v.stateVersion++
}

// RemoveFilter removes f by identity. Returns false if f was not installed.
func (v *Info) RemoveFilter(f Filter) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, existing := range v.filters {
		if existing == f {
			v.filters = append(v.filters[:i], v.filters[i+1:]...)
			v.stateVersion++
			return true
		}
	}
	return false
}

// Viewport returns the view size in pixels.
func (v *Info) Viewport() (width, height int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}

// Resize updates the viewport and the camera aspect ratio. Non-positive sizes
// (minimized windows) are ignored.
//
// Parameters:
//   - width: new width in pixels
//   - height: new height in pixels
func (v *Info) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	v.mu.Lock()
	if v.width == width && v.height == height {
		v.mu.Unlock()
		return
	}
	v.width, v.height = width, height
	v.stateVersion++
	cam := v.camera
	v.mu.Unlock()

	cam.SetAspect(float32(width) / float32(height))
}

// ViewIndex returns the index assigned by the owning scene, or Unregistered.
func (v *Info) ViewIndex() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.index
}

// SetViewIndex is called by the owning scene on (de)registration.
func (v *Info) SetViewIndex(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.index = index
}

// Registered reports whether a scene currently holds this view.
func (v *Info) Registered() bool {
	return v.ViewIndex() != Unregistered
}

// StateVersion returns a counter bumped whenever the camera, filters or viewport change.
func (v *Info) StateVersion() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.stateVersion
}

// Accept reports whether obj passes every filter of the view.
//
// Parameters:
//   - obj: the object to test
//
// Returns:
//   - bool: true if obj is visible in this view
func (v *Info) Accept(obj Filterable) bool {
	for _, f := range v.Filters() {
		if !f.Accept(v, obj) {
			return false
		}
	}
	return true
}

// FiltersChanged reports whether any filter has requested re-evaluation.
func (v *Info) FiltersChanged() bool {
	for _, f := range v.Filters() {
		if f.Changed(v) {
			return true
		}
	}
	return false
}

// ResetFilterChanges clears the changed flag of every filter.
func (v *Info) ResetFilterChanges() {
	for _, f := range v.Filters() {
		f.ResetChanged(v)
	}
}
