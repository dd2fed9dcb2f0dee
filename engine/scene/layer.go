package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// DefaultLayerName is the name of the layer every scene always has.
const DefaultLayerName = "Default"

// layerView is the cached visibility of a layer for one registered view.
type layerView struct {
	view    *view.Info
	valid   bool
	version uint64
	visible []Object
}

// Layer is an ordered partition of a scene's objects. Layers render and update in
// ascending OrderID; ties keep creation order. Each object lives on at most one layer.
// A layer caches per view which of its objects pass the view's filters.
type Layer struct {
	mu *sync.RWMutex

	id      uint64
	name    string
	orderID int

	objects []Object
	views   map[int]*layerView
}

func newLayer(id uint64, name string) *Layer {
	return &Layer{
		mu:    &sync.RWMutex{},
		id:    id,
		name:  name,
		views: make(map[int]*layerView),
	}
}

// ID returns the scene-local layer ID stored in object back-references.
func (l *Layer) ID() uint64 { return l.id }

// Name returns the layer name. Names are immutable.
func (l *Layer) Name() string { return l.name }

// OrderID returns the layer's render and update order key.
func (l *Layer) OrderID() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orderID
}

// IsDefault reports whether this is the scene's default layer.
func (l *Layer) IsDefault() bool { return l.name == DefaultLayerName }

// Objects returns a copy of the layer's objects in insertion order.
func (l *Layer) Objects() []Object {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Object, len(l.objects))
	copy(out, l.objects)
	return out
}

// Len returns the number of objects on the layer.
func (l *Layer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.objects)
}

// Empty reports whether the layer holds no objects.
func (l *Layer) Empty() bool { return l.Len() == 0 }

// Visible returns the cached visible objects for a view index.
//
// Parameters:
//   - viewIndex: the registered view's index
//
// Returns:
//   - []Object: the visible objects; must not be modified
//   - bool: false if the view is unknown or visibility has not been computed since the last change
func (l *Layer) Visible(viewIndex int) ([]Object, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lv, ok := l.views[viewIndex]
	if !ok || !lv.valid {
		return nil, false
	}
	return lv.visible, true
}

func (l *Layer) setOrderID(order int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.orderID = order
}

func (l *Layer) add(obj Object) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.objects = append(l.objects, obj)
	l.invalidateLocked()
}

func (l *Layer) remove(obj Object) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, o := range l.objects {
		if o == obj {
			l.objects = append(l.objects[:i], l.objects[i+1:]...)
			l.invalidateLocked()
			return true
		}
	}
	return false
}

// clear removes every object and returns them.
func (l *Layer) clear() []Object {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.objects
	l.objects = nil
	l.invalidateLocked()
	return out
}

func (l *Layer) registerView(v *view.Info) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.views[v.ViewIndex()] = &layerView{view: v}
}

func (l *Layer) deregisterView(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.views, index)
}

func (l *Layer) invalidateLocked() {
	for _, lv := range l.views {
		lv.valid = false
	}
}

// update runs step five of Scene.Update for this layer. Objects whose visibility-relevant
// state changed invalidate the cached per-view visibility.
func (l *Layer) update(state *frame.UpdateState) error {
	moved := false
	for _, obj := range l.Objects() {
		if obj.Enabled() {
			if err := obj.Update(state); err != nil {
				return fmt.Errorf("layer %q: object %d: %w", l.name, obj.ID(), err)
			}
		}
		if obj.base().moved() {
			moved = true
		}
	}
	if moved {
		l.mu.Lock()
		l.invalidateLocked()
		l.mu.Unlock()
	}
	return nil
}

func (l *Layer) updateBesideRender(state *frame.UpdateState) error {
	for _, obj := range l.Objects() {
		if !obj.Enabled() {
			continue
		}
		if err := obj.UpdateBesideRender(state); err != nil {
			return fmt.Errorf("layer %q: object %d: %w", l.name, obj.ID(), err)
		}
	}
	return nil
}

// refreshVisibility recomputes the visible set of every view whose cache is stale. The
// filtering runs outside the lock; the result is swapped in afterwards.
//
// Returns:
//   - int: the number of views refreshed
func (l *Layer) refreshVisibility() int {
	type stale struct {
		index   int
		view    *view.Info
		version uint64
	}
	l.mu.RLock()
	var todo []stale
	for idx, lv := range l.views {
		version := lv.view.StateVersion()
		if !lv.valid || lv.version != version || lv.view.FiltersChanged() {
			todo = append(todo, stale{index: idx, view: lv.view, version: version})
		}
	}
	objects := make([]Object, len(l.objects))
	copy(objects, l.objects)
	l.mu.RUnlock()

	refreshed := 0
	for _, s := range todo {
		visible := filterObjects(s.view, objects)

		l.mu.Lock()
		if lv, ok := l.views[s.index]; ok && lv.view == s.view {
			lv.visible = visible
			lv.version = s.version
			lv.valid = true
			refreshed++
		}
		l.mu.Unlock()
	}
	return refreshed
}

// visibleFor returns the cached visible set for v, computing it inline when stale.
func (l *Layer) visibleFor(v *view.Info) []Object {
	if visible, ok := l.Visible(v.ViewIndex()); ok {
		return visible
	}
	return filterObjects(v, l.Objects())
}

func (l *Layer) render(rs *frame.RenderState) error {
	for _, obj := range l.visibleFor(rs.View()) {
		if !obj.Enabled() {
			continue
		}
		if err := obj.Render(rs); err != nil {
			return fmt.Errorf("layer %q: render object %d: %w", l.name, obj.ID(), err)
		}
	}
	return nil
}

func (l *Layer) render2DOverlay(rs *frame.RenderState) error {
	for _, obj := range l.visibleFor(rs.View()) {
		if !obj.Enabled() {
			continue
		}
		if err := obj.Render2DOverlay(rs); err != nil {
			return fmt.Errorf("layer %q: overlay object %d: %w", l.name, obj.ID(), err)
		}
	}
	return nil
}

func filterObjects(v *view.Info, objects []Object) []Object {
	visible := make([]Object, 0, len(objects))
	for _, obj := range objects {
		if obj.Enabled() && v.Accept(obj) {
			visible = append(visible, obj)
		}
	}
	return visible
}
