package frame

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// RenderState is the per-device, per-view context of one render pass. Scenes push their
// render context onto it for the duration of a pass so nested draw code can find it.
// A RenderState is used by a single goroutine at a time.
type RenderState struct {
	device  device.Device
	view    *view.Info
	target  DrawTarget
	overlay bool

	contexts []any
}

// NewRenderState creates the state for rendering v on its device into target.
// A nil target discards all draw commands.
//
// Parameters:
//   - v: the registered view being rendered (must not be nil)
//   - target: where draw commands go
//
// Returns:
//   - *RenderState: the new render state
func NewRenderState(v *view.Info, target DrawTarget) *RenderState {
	if v == nil {
		panic("frame: NewRenderState requires a non-nil view")
	}
	if target == nil {
		target = Discard
	}
	return &RenderState{
		device: v.Device(),
		view:   v,
		target: target,
	}
}

func (r *RenderState) Device() device.Device { return r.device }
func (r *RenderState) View() *view.Info      { return r.view }
func (r *RenderState) Target() DrawTarget    { return r.target }

// Overlay reports whether the current pass is the 2D overlay pass.
func (r *RenderState) Overlay() bool { return r.overlay }

// SetOverlay is toggled by Scene.Render2DOverlay around the overlay pass.
func (r *RenderState) SetOverlay(overlay bool) { r.overlay = overlay }

// PushContext pushes a render context.
func (r *RenderState) PushContext(ctx any) {
	r.contexts = append(r.contexts, ctx)
}

// PopContext removes and returns the innermost render context, or nil if the stack is empty.
func (r *RenderState) PopContext() any {
	if len(r.contexts) == 0 {
		return nil
	}
	top := r.contexts[len(r.contexts)-1]
	r.contexts[len(r.contexts)-1] = nil
	r.contexts = r.contexts[:len(r.contexts)-1]
	return top
}

// Context returns the innermost render context without removing it.
func (r *RenderState) Context() any {
	if len(r.contexts) == 0 {
		return nil
	}
	return r.contexts[len(r.contexts)-1]
}

// Depth returns the number of pushed render contexts.
func (r *RenderState) Depth() int { return len(r.contexts) }

// Draw submits cmd to the target, filling in the device and view indices.
func (r *RenderState) Draw(cmd DrawCommand) {
	cmd.Device = r.device.Index()
	cmd.View = r.view.ViewIndex()
	cmd.Overlay = r.overlay
	r.target.Submit(cmd)
}
