package scene

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// objectCount generates process-unique object IDs.
var objectCount atomic.Uint64

// Object is anything placed on a scene layer. Implementations embed ObjectBase, which
// supplies the transform, tag, bounds and no-op hooks, and override the hooks they need.
// Hooks are called on the render driver goroutine.
type Object interface {
	view.Filterable

	// ID returns the object's process-unique ID, assigned when first added to a scene.
	ID() uint64

	// Enabled reports whether the object is updated and rendered.
	Enabled() bool

	// Update is called during step five of Scene.Update.
	//
	// Parameters:
	//   - state: the current frame state
	//
	// Returns:
	//   - error: aborts the scene update
	Update(state *frame.UpdateState) error

	// UpdateBesideRender is called by Scene.UpdateBesideRender, concurrently with rendering.
	//
	// Parameters:
	//   - state: the current frame state
	//
	// Returns:
	//   - error: aborts the beside-render pass
	UpdateBesideRender(state *frame.UpdateState) error

	// Render draws the object into the view described by rs.
	//
	// Parameters:
	//   - rs: the render state of the current device and view
	//
	// Returns:
	//   - error: aborts the render pass
	Render(rs *frame.RenderState) error

	// Render2DOverlay draws the object's 2D overlay into the view described by rs.
	//
	// Parameters:
	//   - rs: the render state of the current device and view
	//
	// Returns:
	//   - error: aborts the overlay pass
	Render2DOverlay(rs *frame.RenderState) error

	base() *ObjectBase
}

// ObjectBase is embedded by every scene object. The zero value is an enabled, unbounded
// object at the origin with unit scale. It must not be copied after first use.
//
// The object stores its owner as an index (scene ID and layer ID) rather than a pointer;
// Scene.ObjectLayer resolves it.
type ObjectBase struct {
	mu sync.RWMutex

	id       atomic.Uint64
	disabled atomic.Bool
	tag      string

	position [3]float32
	rotation [3]float32
	scale    [3]float32
	scaleSet bool

	bounds    common.BoundingSphere
	boundsSet bool

	sceneID uint64
	layerID uint64

	// version is bumped on every visibility-relevant change.
	version atomic.Uint64
	// seen is the version last observed by the owning layer.
	seen atomic.Uint64
}

func (o *ObjectBase) base() *ObjectBase { return o }

func (o *ObjectBase) ID() uint64 { return o.id.Load() }

func (o *ObjectBase) Enabled() bool { return !o.disabled.Load() }

// SetEnabled enables or disables updating and rendering of the object.
func (o *ObjectBase) SetEnabled(enabled bool) {
	if o.disabled.Swap(!enabled) == !enabled {
		return
	}
	o.version.Add(1)
}

func (o *ObjectBase) Tag() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.tag
}

// SetTag sets the tag evaluated by view.TagFilter.
func (o *ObjectBase) SetTag(tag string) {
	o.mutate(func() { o.tag = tag })
}

func (o *ObjectBase) Position() (x, y, z float32) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.position[0], o.position[1], o.position[2]
}

func (o *ObjectBase) SetPosition(x, y, z float32) {
	o.mutate(func() { o.position = [3]float32{x, y, z} })
}

// Rotation returns the Euler rotation in radians.
func (o *ObjectBase) Rotation() (rx, ry, rz float32) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.rotation[0], o.rotation[1], o.rotation[2]
}

func (o *ObjectBase) SetRotation(rx, ry, rz float32) {
	o.mutate(func() { o.rotation = [3]float32{rx, ry, rz} })
}

func (o *ObjectBase) Scale() (sx, sy, sz float32) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := o.scaleLocked()
	return s[0], s[1], s[2]
}

func (o *ObjectBase) SetScale(sx, sy, sz float32) {
	o.mutate(func() {
		o.scale = [3]float32{sx, sy, sz}
		o.scaleSet = true
	})
}

// SetLocalBounds sets the object-space bounding sphere. A negative radius marks the
// object unbounded.
func (o *ObjectBase) SetLocalBounds(b common.BoundingSphere) {
	o.mutate(func() {
		o.bounds = b
		o.boundsSet = true
	})
}

// Bounds returns the world-space bounding sphere derived from the local bounds and the
// transform. Objects without local bounds are unbounded.
func (o *ObjectBase) Bounds() common.BoundingSphere {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if !o.boundsSet || o.bounds.Unbounded() {
		return common.BoundingSphere{Radius: -1}
	}
	var m [16]float32
	o.modelMatrixLocked(m[:])
	x, y, z := common.TransformPoint(m[:], o.bounds.Center[0], o.bounds.Center[1], o.bounds.Center[2])
	s := o.scaleLocked()
	return common.BoundingSphere{
		Center: [3]float32{x, y, z},
		Radius: o.bounds.Radius * common.MaxAxisScale(s[0], s[1], s[2]),
	}
}

// ModelMatrix returns the column-major model matrix built from position, rotation and scale.
func (o *ObjectBase) ModelMatrix() [16]float32 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var m [16]float32
	o.modelMatrixLocked(m[:])
	return m
}

// SceneID returns the ID of the owning scene, or 0 if the object is not on a layer.
func (o *ObjectBase) SceneID() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.sceneID
}

// LayerID returns the scene-local ID of the owning layer. Only meaningful while SceneID is non-zero.
func (o *ObjectBase) LayerID() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.layerID
}

func (o *ObjectBase) Update(*frame.UpdateState) error             { return nil }
func (o *ObjectBase) UpdateBesideRender(*frame.UpdateState) error { return nil }
func (o *ObjectBase) Render(*frame.RenderState) error             { return nil }
func (o *ObjectBase) Render2DOverlay(*frame.RenderState) error    { return nil }

func (o *ObjectBase) mutate(fn func()) {
	o.mu.Lock()
	fn()
	o.mu.Unlock()
	o.version.Add(1)
}

func (o *ObjectBase) scaleLocked() [3]float32 {
	if !o.scaleSet {
		return [3]float32{1, 1, 1}
	}
	return o.scale
}

func (o *ObjectBase) modelMatrixLocked(out []float32) {
	s := o.scaleLocked()
	common.BuildModelMatrix(out,
		o.position[0], o.position[1], o.position[2],
		o.rotation[0], o.rotation[1], o.rotation[2],
		s[0], s[1], s[2],
	)
}

// claim records the owner index. Returns false if the object already has an owner.
func (o *ObjectBase) claim(sceneID, layerID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sceneID != 0 {
		return false
	}
	o.sceneID, o.layerID = sceneID, layerID
	o.id.CompareAndSwap(0, objectCount.Add(1))
	return true
}

func (o *ObjectBase) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sceneID, o.layerID = 0, 0
}

// moved reports whether the object changed since the owning layer last looked.
func (o *ObjectBase) moved() bool {
	v := o.version.Load()
	return o.seen.Swap(v) != v
}

// DrawObject submits a draw command for obj into rs, filling in the layer name from the
// scene render context and the object's model matrix. A convenience for Render overrides.
//
// Parameters:
//   - rs: the render state passed to Render
//   - obj: the object being drawn
//   - key: the string form of the resource the draw uses, or ""
func DrawObject(rs *frame.RenderState, obj Object, key string) {
	cmd := frame.DrawCommand{
		Resource: key,
		Model:    obj.base().ModelMatrix(),
		Object:   obj,
	}
	if ctx, ok := rs.Context().(*RenderContext); ok && ctx.Layer != nil {
		cmd.Layer = ctx.Layer.Name()
	}
	rs.Draw(cmd)
}
