package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

type requestKind int

const (
	requestAttach requestKind = iota
	requestDetach
	requestDetachAll
)

func (k requestKind) String() string {
	switch k {
	case requestAttach:
		return "attach"
	case requestDetach:
		return "detach"
	default:
		return "detach-all"
	}
}

type componentRequest struct {
	kind      requestKind
	component Component
	view      *view.Info
}

type attachedComponent struct {
	component Component
	view      *view.Info
	ctx       any
}

// componentFlyweight queues attach and detach requests from any goroutine and applies
// them on the driver once per Scene.Update.
type componentFlyweight struct {
	owner *scene

	requestsMu *sync.Mutex
	requests   []componentRequest

	attachedMu *sync.RWMutex
	attached   []attachedComponent
}

func newComponentFlyweight(owner *scene) *componentFlyweight {
	return &componentFlyweight{
		owner:      owner,
		requestsMu: &sync.Mutex{},
		attachedMu: &sync.RWMutex{},
	}
}

// normalizeView validates the view argument. Global components always use a nil view.
func normalizeView(c Component, v *view.Info) (*view.Info, error) {
	if c == nil {
		panic("scene: component must not be nil")
	}
	if !c.IsViewSpecific() {
		return nil, nil
	}
	if v == nil {
		return nil, ErrViewRequired
	}
	return v, nil
}

func (f *componentFlyweight) attach(c Component, v *view.Info) error {
	v, err := normalizeView(c, v)
	if err != nil {
		return err
	}
	f.enqueue(componentRequest{kind: requestAttach, component: c, view: v})
	return nil
}

func (f *componentFlyweight) detach(c Component, v *view.Info) error {
	v, err := normalizeView(c, v)
	if err != nil {
		return err
	}
	f.enqueue(componentRequest{kind: requestDetach, component: c, view: v})
	return nil
}

func (f *componentFlyweight) detachAll(v *view.Info) {
	f.enqueue(componentRequest{kind: requestDetachAll, view: v})
}

func (f *componentFlyweight) enqueue(r componentRequest) {
	f.requestsMu.Lock()
	defer f.requestsMu.Unlock()
	f.requests = append(f.requests, r)
}

func (f *componentFlyweight) pop() (componentRequest, bool) {
	f.requestsMu.Lock()
	defer f.requestsMu.Unlock()
	if len(f.requests) == 0 {
		return componentRequest{}, false
	}
	r := f.requests[0]
	f.requests[0] = componentRequest{}
	f.requests = f.requests[1:]
	return r, true
}

func (f *componentFlyweight) pending() int {
	f.requestsMu.Lock()
	defer f.requestsMu.Unlock()
	return len(f.requests)
}

func (f *componentFlyweight) list() []ComponentInfo {
	f.attachedMu.RLock()
	defer f.attachedMu.RUnlock()
	out := make([]ComponentInfo, len(f.attached))
	for i, a := range f.attached {
		out[i] = ComponentInfo{Component: a.component, View: a.view}
	}
	return out
}

func (f *componentFlyweight) snapshot() []attachedComponent {
	f.attachedMu.RLock()
	defer f.attachedMu.RUnlock()
	out := make([]attachedComponent, len(f.attached))
	copy(out, f.attached)
	return out
}

func (f *componentFlyweight) indexOf(c Component, v *view.Info) int {
	for i, a := range f.attached {
		if a.component == c && a.view == v {
			return i
		}
	}
	return -1
}

// update runs every attached component's Update hook, then drains the request queue until
// it is empty, including requests enqueued while draining. Hook errors abort the call and
// leave the remaining requests queued.
func (f *componentFlyweight) update(state *frame.UpdateState) error {
	for _, a := range f.snapshot() {
		if err := a.component.Update(state, a.view, a.ctx); err != nil {
			return fmt.Errorf("scene: component %T update: %w", a.component, err)
		}
	}

	for {
		r, ok := f.pop()
		if !ok {
			return nil
		}
		var err error
		switch r.kind {
		case requestAttach:
			err = f.applyAttach(r.component, r.view)
		case requestDetach:
			err = f.applyDetach(r.component, r.view)
		case requestDetachAll:
			err = f.applyDetachAll(r.view)
		}
		if err != nil {
			return err
		}
	}
}

func (f *componentFlyweight) applyAttach(c Component, v *view.Info) error {
	f.attachedMu.RLock()
	if f.indexOf(c, v) >= 0 {
		f.attachedMu.RUnlock()
		return nil
	}
	if group := c.ComponentGroup(); group != "" {
		for _, a := range f.attached {
			if a.view == v && a.component.ComponentGroup() == group {
				f.enqueue(componentRequest{kind: requestDetach, component: a.component, view: a.view})
			}
		}
	}
	f.attachedMu.RUnlock()

	m := newManipulator(f.owner)
	ctx, err := func() (any, error) {
		defer m.invalidate()
		return c.Attach(m, v)
	}()
	if err != nil {
		return fmt.Errorf("scene: component %T attach: %w", c, err)
	}

	f.attachedMu.Lock()
	f.attached = append(f.attached, attachedComponent{component: c, view: v, ctx: ctx})
	f.attachedMu.Unlock()

	f.owner.logger().Debug("component attached", "component", fmt.Sprintf("%T", c), "view", viewIndexOf(v))
	f.owner.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, ComponentAttached{SceneID: f.owner.id, Component: c, View: v})
	})
	return nil
}

func (f *componentFlyweight) applyDetach(c Component, v *view.Info) error {
	f.attachedMu.RLock()
	i := f.indexOf(c, v)
	var entry attachedComponent
	if i >= 0 {
		entry = f.attached[i]
	}
	f.attachedMu.RUnlock()
	if i < 0 {
		return nil
	}
	return f.detachEntry(entry)
}

// applyDetachAll detaches, one at a time, the first attached component whose view is v
// until none remain.
func (f *componentFlyweight) applyDetachAll(v *view.Info) error {
	for {
		f.attachedMu.RLock()
		found := false
		var entry attachedComponent
		for _, a := range f.attached {
			if a.view == v {
				entry, found = a, true
				break
			}
		}
		f.attachedMu.RUnlock()
		if !found {
			return nil
		}
		if err := f.detachEntry(entry); err != nil {
			return err
		}
	}
}

func (f *componentFlyweight) detachEntry(entry attachedComponent) error {
	m := newManipulator(f.owner)
	err := func() error {
		defer m.invalidate()
		return entry.component.Detach(m, entry.view, entry.ctx)
	}()
	if err != nil {
		return fmt.Errorf("scene: component %T detach: %w", entry.component, err)
	}

	f.attachedMu.Lock()
	if i := f.indexOf(entry.component, entry.view); i >= 0 {
		f.attached = append(f.attached[:i], f.attached[i+1:]...)
	}
	f.attachedMu.Unlock()

	f.owner.logger().Debug("component detached", "component", fmt.Sprintf("%T", entry.component), "view", viewIndexOf(entry.view))
	f.owner.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, ComponentDetached{SceneID: f.owner.id, Component: entry.component, View: entry.view})
	})
	return nil
}

func viewIndexOf(v *view.Info) int {
	if v == nil {
		return view.Unregistered
	}
	return v.ViewIndex()
}
