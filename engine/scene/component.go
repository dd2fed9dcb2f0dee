package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// Component is a behavior attached to a scene, either globally or to one registered view.
// Components are matched by identity, so implementations must be comparable; use pointer
// receivers. All hooks run on the render driver goroutine during Scene.Update, and errors
// returned by them abort that update.
type Component interface {
	// IsViewSpecific reports whether the component must be attached to a view.
	//
	// Returns:
	//   - bool: true if attach and detach require a non-nil view
	IsViewSpecific() bool

	// ComponentGroup returns the exclusivity group. Attaching a component detaches every
	// other component of the same non-empty group attached to the same view.
	//
	// Returns:
	//   - string: the group name, or "" for no exclusivity
	ComponentGroup() string

	// Attach is called once when the component becomes attached.
	//
	// Parameters:
	//   - m: a manipulator valid only for the duration of the call
	//   - v: the view, or nil for global components
	//
	// Returns:
	//   - any: an opaque context handed back to Update and Detach
	//   - error: aborts the attach; the component is not attached
	Attach(m *Manipulator, v *view.Info) (any, error)

	// Detach is called once when the component is detached.
	//
	// Parameters:
	//   - m: a manipulator valid only for the duration of the call
	//   - v: the view, or nil for global components
	//   - ctx: the context returned by Attach
	//
	// Returns:
	//   - error: aborts the detach; the component stays attached
	Detach(m *Manipulator, v *view.Info, ctx any) error

	// Update is called every frame while attached.
	//
	// Parameters:
	//   - state: the current frame state
	//   - v: the view, or nil for global components
	//   - ctx: the context returned by Attach
	//
	// Returns:
	//   - error: aborts the scene update
	Update(state *frame.UpdateState, v *view.Info, ctx any) error
}

// ComponentInfo describes one attached component.
type ComponentInfo struct {
	Component Component
	// View is nil for global components.
	View *view.Info
}
