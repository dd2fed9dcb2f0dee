package view

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Filterable is the view of a scene object that filters evaluate.
type Filterable interface {
	// Tag returns the object's free-form tag.
	Tag() string

	// Bounds returns the object's world-space bounding sphere.
	Bounds() common.BoundingSphere
}

// Filter decides per view which objects are visible. Layers cache the result per view and
// re-evaluate only when the view state changes or a filter reports Changed.
type Filter interface {
	// Accept reports whether obj is visible in v.
	//
	// Parameters:
	//   - v: the view being evaluated
	//   - obj: the candidate object
	//
	// Returns:
	//   - bool: true if the object passes the filter
	Accept(v *Info, obj Filterable) bool

	// Changed reports whether cached filter results for v are stale.
	//
	// Parameters:
	//   - v: the view being evaluated
	//
	// Returns:
	//   - bool: true if the layer must re-run the filter
	Changed(v *Info) bool

	// ResetChanged acknowledges a re-evaluation for v. Called by the scene on the driver
	// goroutine after all layers have refreshed.
	//
	// Parameters:
	//   - v: the view that was re-evaluated
	ResetChanged(v *Info)
}

// FilterBase carries the changed flag shared by the built-in filters. Embed it and call
// MarkChanged from UI code whenever the filter's settings change.
type FilterBase struct {
	changed atomic.Bool
}

// MarkChanged requests re-evaluation on the next beside-render pass. Safe from any goroutine.
func (b *FilterBase) MarkChanged() { b.changed.Store(true) }

func (b *FilterBase) Changed(*Info) bool { return b.changed.Load() }
func (b *FilterBase) ResetChanged(*Info) { b.changed.Store(false) }

// FrustumFilter culls objects whose bounding sphere lies outside the view camera's frustum.
// Unbounded objects always pass. The filter reports Changed whenever the camera of a view
// moved since the last reset, so it can be shared by several views.
type FrustumFilter struct {
	FilterBase

	mu   *sync.Mutex
	seen map[*Info]uint64
}

var _ Filter = &FrustumFilter{}

// NewFrustumFilter creates a frustum culling filter.
func NewFrustumFilter() *FrustumFilter {
	return &FrustumFilter{
		mu:   &sync.Mutex{},
		seen: make(map[*Info]uint64),
	}
}

func (f *FrustumFilter) Accept(v *Info, obj Filterable) bool {
	b := obj.Bounds()
	if b.Unbounded() {
		return true
	}
	return v.Camera().Frustum().IntersectsSphere(b)
}

func (f *FrustumFilter) Changed(v *Info) bool {
	if f.FilterBase.Changed(v) {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	seen, ok := f.seen[v]
	return !ok || seen != v.Camera().Version()
}

func (f *FrustumFilter) ResetChanged(v *Info) {
	f.FilterBase.ResetChanged(v)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen[v] = v.Camera().Version()
}

// Forget drops the camera version recorded for v. Call when the view is discarded.
func (f *FrustumFilter) Forget(v *Info) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, v)
}

// TagFilter admits only objects whose tag is in an allow-list. An empty allow-list admits
// everything.
type TagFilter struct {
	FilterBase

	mu   *sync.RWMutex
	tags map[string]struct{}
}

var _ Filter = &TagFilter{}

// NewTagFilter creates a tag filter admitting the given tags.
func NewTagFilter(tags ...string) *TagFilter {
	f := &TagFilter{mu: &sync.RWMutex{}}
	f.SetTags(tags...)
	f.ResetChanged(nil)
	return f
}

// SetTags replaces the allow-list and marks the filter changed.
func (f *TagFilter) SetTags(tags ...string) {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	f.mu.Lock()
	f.tags = set
	f.mu.Unlock()
	f.MarkChanged()
}

func (f *TagFilter) Accept(_ *Info, obj Filterable) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.tags) == 0 {
		return true
	}
	_, ok := f.tags[obj.Tag()]
	return ok
}
