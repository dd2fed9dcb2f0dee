package scene

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// DefaultMaxFrameClock is the value at which the scene frame clock wraps to zero.
const DefaultMaxFrameClock uint64 = math.MaxUint32

// sceneCount generates process-unique scene IDs. Objects store the ID of their owner.
var sceneCount atomic.Uint64

// Scene is the aggregate root of the update/render core. It owns layers of objects, one
// resource dictionary and one set of render parameters per loaded device, the registered
// views, the attached components, and the queues through which other goroutines mutate it.
//
// One driver goroutine calls Update, UpdateBesideRender, Render and Render2DOverlay; any
// goroutine may enqueue work with the *Async methods and component requests without blocking.
// Thread-safe for concurrent access.
type Scene interface {
	// ID returns the process-unique scene ID.
	ID() uint64

	// Name returns the scene's name. Names are labels and need not be unique.
	Name() string

	// SetName sets the scene's name.
	SetName(name string)

	// Registry returns the device registry the scene was created with.
	Registry() device.Registry

	// Messenger returns the attached messenger, or nil.
	Messenger() *messaging.Messenger

	// AttachMessenger attaches m as the scene's messenger. Scene messages are published on
	// it and it is installed as the sync context while Update runs.
	//
	// Parameters:
	//   - m: the messenger (must not be nil)
	AttachMessenger(m *messaging.Messenger)

	// DetachMessenger detaches the messenger.
	//
	// Returns:
	//   - error: ErrViewsRegistered while any view is registered
	DetachMessenger() error

	// Pinned reports whether automatic unload is suppressed.
	Pinned() bool

	// SetPinned suppresses (true) or allows (false) the automatic unload of device resources
	// when no view is registered.
	//
	// Parameters:
	//   - pinned: true to keep resources loaded without views
	SetPinned(pinned bool)

	// FrameClock returns the scene's frame clock in milliseconds. It wraps at the configured maximum.
	FrameClock() uint64

	// ManipulateSceneAsync queues fn to run on the driver before the next update. The
	// manipulator passed to fn is valid only while fn runs.
	//
	// Parameters:
	//   - fn: the mutation
	//
	// Returns:
	//   - *Task: completes with fn's error (panics are recovered into errors)
	ManipulateSceneAsync(fn func(m *Manipulator) error) *Task

	// PerformBeforeUpdateAsync queues fn to run on the driver during the next Update.
	// Actions queued while the queue drains run on the following Update.
	//
	// Parameters:
	//   - fn: the action
	//
	// Returns:
	//   - *Task: completes with fn's error
	PerformBeforeUpdateAsync(fn func() error) *Task

	// PerformBesideRenderingAsync queues fn to run during the next UpdateBesideRender,
	// concurrently with device rendering. The queue drains to exhaustion.
	//
	// Parameters:
	//   - fn: the action
	//
	// Returns:
	//   - *Task: completes with fn's error
	PerformBesideRenderingAsync(fn func() error) *Task

	// WaitUntilAsync completes once cond returns true. cond is evaluated on the driver after
	// every Update.
	//
	// Parameters:
	//   - ctx: cancels the wait; a deadline acts as a timeout
	//   - cond: the condition to poll
	//
	// Returns:
	//   - *Task: completes with nil, or ctx.Err() if ctx ends before cond holds
	WaitUntilAsync(ctx context.Context, cond func() bool) *Task

	// AddResource invokes factory once per loaded device and stores each instance under key
	// in that device's dictionary. Instances are never shared between devices.
	//
	// Parameters:
	//   - factory: builds one resource instance
	//   - key: the key, or resource.EmptyKey to allocate a fresh one
	//
	// Returns:
	//   - resource.Key: the key used
	//   - error: ErrResourceExists if key is taken, ErrNoDevices without loaded devices
	AddResource(factory func() resource.Resource, key resource.Key) (resource.Key, error)

	// ContainsResource reports whether every device dictionary holds key.
	//
	// Parameters:
	//   - key: a non-empty key
	//
	// Returns:
	//   - bool: true if the resource exists
	//   - error: ErrEmptyKey for the empty key
	ContainsResource(key resource.Key) (bool, error)

	// RemoveResource removes key from every device dictionary, unloading loaded instances.
	//
	// Parameters:
	//   - key: a non-empty key
	//
	// Returns:
	//   - error: ErrEmptyKey, or resource.ErrNotFound if no dictionary held key
	RemoveResource(key resource.Key) error

	// Dictionaries returns the per-device resource dictionaries indexed by device index,
	// creating them on first use.
	//
	// Returns:
	//   - []*resource.Dictionary: one dictionary per loaded device
	//   - error: ErrNoDevices if the registry has no loaded devices
	Dictionaries() ([]*resource.Dictionary, error)

	// RenderParameters returns the render parameters of a device, or nil before its first render.
	RenderParameters(deviceIndex int) *RenderParameters

	// RegisterView assigns v the smallest free view index and makes it renderable.
	//
	// Parameters:
	//   - v: the view
	//
	// Returns:
	//   - error: ErrViewAlreadyRegistered, or ErrDeviceNotLoaded if v's device is not part of the registry
	RegisterView(v *view.Info) error

	// DeregisterView releases v's view index and queues detachment of its view-specific
	// components. Deregistering the last view schedules an automatic unload unless pinned.
	//
	// Parameters:
	//   - v: the view
	//
	// Returns:
	//   - error: ErrViewNotRegistered if the scene does not hold v
	DeregisterView(v *view.Info) error

	// Views returns the registered views ordered by view index.
	Views() []*view.Info

	// AddLayer adds an empty layer with OrderID 0.
	//
	// Parameters:
	//   - name: a unique, non-empty name
	//
	// Returns:
	//   - *Layer: the new layer
	//   - error: ErrDuplicateLayer or ErrInvalidLayerName
	AddLayer(name string) (*Layer, error)

	// RemoveLayer removes a layer and releases its objects.
	//
	// Parameters:
	//   - name: the layer name
	//
	// Returns:
	//   - error: ErrDefaultLayer or ErrLayerNotFound
	RemoveLayer(name string) error

	// SetLayerOrderID changes a layer's order key and re-sorts the layers.
	//
	// Parameters:
	//   - name: the layer name
	//   - order: the new order key; lower values update and render first
	//
	// Returns:
	//   - error: ErrLayerNotFound
	SetLayerOrderID(name string, order int) error

	// ClearLayer removes every object from a layer.
	//
	// Parameters:
	//   - name: the layer name
	//
	// Returns:
	//   - error: ErrLayerNotFound
	ClearLayer(name string) error

	// Layer returns the named layer.
	Layer(name string) (*Layer, bool)

	// Layers returns the layers in ascending OrderID.
	Layers() []*Layer

	// Clear removes every object and every non-default layer. With clearResources it also
	// destroys the device dictionaries and render parameters; they are recreated lazily.
	//
	// Parameters:
	//   - clearResources: true to drop device resources too
	Clear(clearResources bool)

	// AddObject places obj on a layer.
	//
	// Parameters:
	//   - obj: the object
	//   - layerName: the layer name, or "" for the default layer
	//
	// Returns:
	//   - error: ErrObjectOwned or ErrLayerNotFound
	AddObject(obj Object, layerName string) error

	// RemoveObject takes obj off its layer.
	//
	// Returns:
	//   - error: ErrObjectNotFound if this scene does not own obj
	RemoveObject(obj Object) error

	// ObjectLayer resolves obj's back-reference to its layer.
	ObjectLayer(obj Object) (*Layer, bool)

	// AttachComponent queues c for attachment. View-specific components require v; global
	// components ignore it.
	//
	// Returns:
	//   - error: ErrViewRequired
	AttachComponent(c Component, v *view.Info) error

	// DetachComponent queues c for detachment.
	//
	// Returns:
	//   - error: ErrViewRequired
	DetachComponent(c Component, v *view.Info) error

	// DetachAllComponents queues detachment of every component attached to v, or of every
	// global component when v is nil.
	DetachAllComponents(v *view.Info)

	// Components returns the attached components.
	Components() []ComponentInfo

	// Update runs one frame: advance the frame clock, update components and apply component
	// requests, drain the before-update queue, run a pending automatic unload and update
	// loaded resources, update layers in order, then re-check poll tasks.
	//
	// Parameters:
	//   - state: the frame state
	//
	// Returns:
	//   - error: a component hook or object update error; queued action errors go to their tasks
	Update(state *frame.UpdateState) error

	// UpdateBesideRender drains the beside-render queue, refreshes per-view layer visibility,
	// resets filter change flags and runs objects' beside-render hooks. Runs concurrently with rendering.
	//
	// Parameters:
	//   - state: the frame state
	//
	// Returns:
	//   - error: an object hook error
	UpdateBesideRender(state *frame.UpdateState) error

	// Render draws the scene into rs's view on rs's device.
	//
	// Parameters:
	//   - rs: the render state of one registered view
	//
	// Returns:
	//   - error: ErrNoResourceDictionary, ErrViewNotRegistered or an object render error
	Render(rs *frame.RenderState) error

	// Render2DOverlay draws the scene's 2D overlay into rs's view on rs's device.
	//
	// Parameters:
	//   - rs: the render state of one registered view
	//
	// Returns:
	//   - error: ErrNoResourceDictionary, ErrViewNotRegistered or an object render error
	Render2DOverlay(rs *frame.RenderState) error

	// Close fails every queued task and poll with ErrSceneClosed and releases device resources.
	Close()
}

type scene struct {
	mu *sync.RWMutex

	id       uint64
	name     string
	registry device.Registry
	log      *slog.Logger

	messenger *messaging.Messenger

	layers      []*Layer
	nextLayerID uint64

	resMu        *sync.Mutex
	dictionaries []*resource.Dictionary

	paramsMu *sync.RWMutex
	params   []*RenderParameters

	views     []*view.Info
	viewCount int

	pinned        bool
	unloadPending bool

	frameClock    atomic.Uint64
	maxFrameClock uint64

	beforeUpdate *actionQueue
	besideRender *actionQueue
	components   *componentFlyweight
	polls        *poller

	closed atomic.Bool
}

var _ Scene = &scene{}

// NewScene creates a scene holding only the default layer. Device dictionaries are created
// on the first resource-touching call, sized to registry.Count() at that time.
//
// Parameters:
//   - name: the scene's name
//   - registry: the device registry shared with the engine (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, registry device.Registry, options ...SceneBuilderOption) Scene {
	if registry == nil {
		panic("scene: NewScene requires a non-nil device Registry")
	}

	s := &scene{
		mu:            &sync.RWMutex{},
		id:            sceneCount.Add(1),
		name:          name,
		registry:      registry,
		resMu:         &sync.Mutex{},
		paramsMu:      &sync.RWMutex{},
		maxFrameClock: DefaultMaxFrameClock,
		beforeUpdate:  newActionQueue(),
		besideRender:  newActionQueue(),
		polls:         newPoller(),
	}
	s.components = newComponentFlyweight(s)
	s.layers = []*Layer{newLayer(s.nextLayerID, DefaultLayerName)}
	s.nextLayerID++

	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) logger() *slog.Logger {
	if s.log != nil {
		return s.log
	}
	return logging.Logger()
}

// publish hands the attached messenger, if any, to fn.
func (s *scene) publish(fn func(m *messaging.Messenger)) {
	if m := s.Messenger(); m != nil {
		fn(m)
	}
}

func (s *scene) ID() uint64 { return s.id }

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Registry() device.Registry { return s.registry }

func (s *scene) Messenger() *messaging.Messenger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.messenger
}

func (s *scene) AttachMessenger(m *messaging.Messenger) {
	if m == nil {
		panic("scene: AttachMessenger requires a non-nil Messenger")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messenger = m
}

func (s *scene) DetachMessenger() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewCount > 0 {
		return fmt.Errorf("%w: %d view(s)", ErrViewsRegistered, s.viewCount)
	}
	s.messenger = nil
	return nil
}

func (s *scene) Pinned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pinned
}

func (s *scene) SetPinned(pinned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinned = pinned
	switch {
	case pinned:
		s.unloadPending = false
	case s.viewCount == 0 && s.dictionaries != nil:
		s.unloadPending = true
	}
}

func (s *scene) FrameClock() uint64 { return s.frameClock.Load() }

func (s *scene) ManipulateSceneAsync(fn func(m *Manipulator) error) *Task {
	return s.beforeUpdate.push(func() error {
		m := newManipulator(s)
		defer m.invalidate()
		return fn(m)
	})
}

func (s *scene) PerformBeforeUpdateAsync(fn func() error) *Task {
	return s.beforeUpdate.push(fn)
}

func (s *scene) PerformBesideRenderingAsync(fn func() error) *Task {
	return s.besideRender.push(fn)
}

func (s *scene) WaitUntilAsync(ctx context.Context, cond func() bool) *Task {
	return s.polls.add(ctx, cond)
}

// ensureDictionaries creates one dictionary per loaded device on first use.
func (s *scene) ensureDictionaries() ([]*resource.Dictionary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dictionaries == nil {
		devices := s.registry.Devices()
		if len(devices) == 0 {
			return nil, ErrNoDevices
		}
		s.dictionaries = make([]*resource.Dictionary, len(devices))
		for i, d := range devices {
			s.dictionaries[i] = resource.NewDictionary(d)
		}
		s.logger().Debug("resource dictionaries created", "scene", s.name, "devices", len(devices))
	}
	out := make([]*resource.Dictionary, len(s.dictionaries))
	copy(out, s.dictionaries)
	return out, nil
}

// dictionaryFor returns the dictionary of d, or nil when d has none. Dictionaries are only
// created under the write lock when they do not exist yet.
func (s *scene) dictionaryFor(d device.Device) *resource.Dictionary {
	s.mu.RLock()
	dicts := s.dictionaries
	s.mu.RUnlock()
	if dicts == nil {
		var err error
		if dicts, err = s.ensureDictionaries(); err != nil {
			return nil
		}
	}
	i := d.Index()
	if i < 0 || i >= len(dicts) || dicts[i].Device() != d {
		return nil
	}
	return dicts[i]
}

func (s *scene) Dictionaries() ([]*resource.Dictionary, error) {
	return s.ensureDictionaries()
}

func (s *scene) AddResource(factory func() resource.Resource, key resource.Key) (resource.Key, error) {
	if factory == nil {
		panic("scene: AddResource requires a non-nil factory")
	}
	dicts, err := s.ensureDictionaries()
	if err != nil {
		return resource.EmptyKey, err
	}
	if key.IsEmpty() {
		key = resource.NewKey()
	}

	s.resMu.Lock()
	defer s.resMu.Unlock()
	for _, d := range dicts {
		if d.Contains(key) {
			return resource.EmptyKey, fmt.Errorf("scene: add %s: %w", key, ErrResourceExists)
		}
	}
	for _, d := range dicts {
		r := factory()
		if r == nil {
			return resource.EmptyKey, fmt.Errorf("scene: add %s: factory returned nil for %s", key, d.Device().Name())
		}
		if err := d.Add(key, r); err != nil {
			return resource.EmptyKey, fmt.Errorf("scene: add %s: %w", key, err)
		}
	}
	return key, nil
}

func (s *scene) ContainsResource(key resource.Key) (bool, error) {
	if key.IsEmpty() {
		return false, ErrEmptyKey
	}
	dicts, err := s.ensureDictionaries()
	if err != nil {
		return false, err
	}
	for _, d := range dicts {
		if !d.Contains(key) {
			return false, nil
		}
	}
	return true, nil
}

func (s *scene) RemoveResource(key resource.Key) error {
	if key.IsEmpty() {
		return ErrEmptyKey
	}
	dicts, err := s.ensureDictionaries()
	if err != nil {
		return err
	}
	s.resMu.Lock()
	defer s.resMu.Unlock()
	removed := false
	for _, d := range dicts {
		if d.Remove(key) {
			removed = true
		}
	}
	if !removed {
		return fmt.Errorf("scene: remove %s: %w", key, resource.ErrNotFound)
	}
	return nil
}

func (s *scene) RenderParameters(deviceIndex int) *RenderParameters {
	s.paramsMu.RLock()
	defer s.paramsMu.RUnlock()
	if deviceIndex < 0 || deviceIndex >= len(s.params) {
		return nil
	}
	return s.params[deviceIndex]
}

// renderParameters returns the parameters of d, creating them on first use.
func (s *scene) renderParameters(d device.Device) (*RenderParameters, error) {
	if p := s.RenderParameters(d.Index()); p != nil {
		return p, nil
	}

	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	if d.Index() < len(s.params) && s.params[d.Index()] != nil {
		return s.params[d.Index()], nil
	}
	if len(s.params) < s.registry.Count() {
		s.params = append(s.params, make([]*RenderParameters, s.registry.Count()-len(s.params))...)
	}
	p, err := newRenderParameters(s.Name(), d)
	if err != nil {
		return nil, fmt.Errorf("scene: render parameters for %s: %w", d.Name(), err)
	}
	s.params[d.Index()] = p
	return p, nil
}

func (s *scene) releaseRenderParameters() {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	for i, p := range s.params {
		if p != nil {
			p.release()
			s.params[i] = nil
		}
	}
}

func (s *scene) RegisterView(v *view.Info) error {
	if v == nil {
		panic("scene: RegisterView requires a non-nil view")
	}
	if _, err := s.ensureDictionaries(); err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceNotLoaded, err)
	}

	s.mu.Lock()
	if v.Registered() {
		s.mu.Unlock()
		return ErrViewAlreadyRegistered
	}
	d := v.Device()
	if !s.registry.Contains(d) || d.Index() >= len(s.dictionaries) || s.dictionaries[d.Index()] == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDeviceNotLoaded, d.Name())
	}

	index := slices.Index(s.views, nil)
	if index < 0 {
		index = len(s.views)
		s.views = append(s.views, nil)
	}
	s.views[index] = v
	s.viewCount++
	v.SetViewIndex(index)
	for _, l := range s.layers {
		l.registerView(v)
	}
	if s.unloadPending {
		s.unloadPending = false
		s.logger().Debug("automatic unload cancelled", "scene", s.name)
	}
	s.logger().Info("view registered", "scene", s.name, "view", index, "device", d.Name())
	s.mu.Unlock()

	s.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, ViewRegistered{SceneID: s.id, ViewIndex: index, View: v})
	})
	return nil
}

func (s *scene) DeregisterView(v *view.Info) error {
	if v == nil {
		panic("scene: DeregisterView requires a non-nil view")
	}

	s.mu.Lock()
	index := v.ViewIndex()
	if index < 0 || index >= len(s.views) || s.views[index] != v {
		s.mu.Unlock()
		return ErrViewNotRegistered
	}
	s.views[index] = nil
	for len(s.views) > 0 && s.views[len(s.views)-1] == nil {
		s.views = s.views[:len(s.views)-1]
	}
	s.viewCount--
	v.SetViewIndex(view.Unregistered)
	for _, l := range s.layers {
		l.deregisterView(index)
	}
	if s.viewCount == 0 && !s.pinned {
		s.unloadPending = true
	}
	s.logger().Info("view deregistered", "scene", s.name, "view", index, "unload_pending", s.unloadPending)
	s.mu.Unlock()

	s.components.detachAll(v)
	s.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, ViewDeregistered{SceneID: s.id, ViewIndex: index, View: v})
	})
	return nil
}

func (s *scene) Views() []*view.Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*view.Info, 0, s.viewCount)
	for _, v := range s.views {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// sortLayersLocked orders layers by OrderID, then by creation.
func (s *scene) sortLayersLocked() {
	slices.SortStableFunc(s.layers, func(a, b *Layer) int {
		return cmp.Or(cmp.Compare(a.OrderID(), b.OrderID()), cmp.Compare(a.id, b.id))
	})
}

func (s *scene) layerLocked(name string) *Layer {
	if name == "" {
		name = DefaultLayerName
	}
	for _, l := range s.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

func (s *scene) layerByIDLocked(id uint64) *Layer {
	for _, l := range s.layers {
		if l.id == id {
			return l
		}
	}
	return nil
}

func (s *scene) AddLayer(name string) (*Layer, error) {
	if name == "" {
		return nil, ErrInvalidLayerName
	}
	s.mu.Lock()
	if s.layerLocked(name) != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	l := newLayer(s.nextLayerID, name)
	s.nextLayerID++
	for _, v := range s.views {
		if v != nil {
			l.registerView(v)
		}
	}
	s.layers = append(s.layers, l)
	s.sortLayersLocked()
	s.mu.Unlock()

	s.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, LayerAdded{SceneID: s.id, Layer: name})
	})
	return l, nil
}

func (s *scene) RemoveLayer(name string) error {
	if name == DefaultLayerName {
		return ErrDefaultLayer
	}
	s.mu.Lock()
	l := s.layerLocked(name)
	if l == nil || name == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	s.layers = slices.DeleteFunc(s.layers, func(x *Layer) bool { return x == l })
	s.sortLayersLocked()
	s.mu.Unlock()

	for _, obj := range l.clear() {
		obj.base().release()
	}
	s.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, LayerRemoved{SceneID: s.id, Layer: name})
	})
	return nil
}

func (s *scene) SetLayerOrderID(name string, order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.layerLocked(name)
	if l == nil {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	l.setOrderID(order)
	s.sortLayersLocked()
	return nil
}

func (s *scene) ClearLayer(name string) error {
	s.mu.RLock()
	l := s.layerLocked(name)
	s.mu.RUnlock()
	if l == nil {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	for _, obj := range l.clear() {
		obj.base().release()
	}
	return nil
}

func (s *scene) Layer(name string) (*Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := s.layerLocked(name)
	return l, l != nil
}

func (s *scene) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

func (s *scene) Clear(clearResources bool) {
	s.mu.Lock()
	var removed []*Layer
	kept := s.layers[:0]
	for _, l := range s.layers {
		if l.IsDefault() {
			kept = append(kept, l)
		} else {
			removed = append(removed, l)
		}
	}
	s.layers = kept
	var dicts []*resource.Dictionary
	if clearResources {
		dicts = s.dictionaries
		s.dictionaries = nil
		s.unloadPending = false
	}
	remaining := slices.Clone(s.layers)
	s.mu.Unlock()

	for _, l := range append(remaining, removed...) {
		for _, obj := range l.clear() {
			obj.base().release()
		}
	}
	for _, l := range removed {
		s.publish(func(m *messaging.Messenger) {
			messaging.Publish(m, LayerRemoved{SceneID: s.id, Layer: l.name})
		})
	}
	if clearResources {
		for _, d := range dicts {
			d.Clear()
		}
		s.releaseRenderParameters()
	}
	s.logger().Info("scene cleared", "scene", s.Name(), "resources", clearResources)
}

func (s *scene) AddObject(obj Object, layerName string) error {
	if obj == nil {
		panic("scene: AddObject requires a non-nil Object")
	}
	s.mu.RLock()
	l := s.layerLocked(layerName)
	s.mu.RUnlock()
	if l == nil {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, layerName)
	}
	if !obj.base().claim(s.id, l.id) {
		return ErrObjectOwned
	}
	l.add(obj)
	return nil
}

func (s *scene) RemoveObject(obj Object) error {
	if obj == nil {
		panic("scene: RemoveObject requires a non-nil Object")
	}
	l, ok := s.ObjectLayer(obj)
	if !ok || !l.remove(obj) {
		return ErrObjectNotFound
	}
	obj.base().release()
	return nil
}

func (s *scene) ObjectLayer(obj Object) (*Layer, bool) {
	b := obj.base()
	if b.SceneID() != s.id {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	l := s.layerByIDLocked(b.LayerID())
	return l, l != nil
}

func (s *scene) AttachComponent(c Component, v *view.Info) error {
	return s.components.attach(c, v)
}

func (s *scene) DetachComponent(c Component, v *view.Info) error {
	return s.components.detach(c, v)
}

func (s *scene) DetachAllComponents(v *view.Info) {
	s.components.detachAll(v)
}

func (s *scene) Components() []ComponentInfo {
	return s.components.list()
}

// advanceClock adds the frame's delta, in milliseconds, wrapping at maxFrameClock.
func (s *scene) advanceClock(state *frame.UpdateState) {
	delta := uint64(math.Round(float64(state.DeltaTime) * 1000))
	s.frameClock.Store((s.frameClock.Load() + delta) % s.maxFrameClock)
}

// processPendingUnload unloads every device resource if the last view deregistered and
// no view has registered since.
func (s *scene) processPendingUnload() {
	s.mu.Lock()
	if !s.unloadPending || s.viewCount > 0 || s.pinned {
		s.unloadPending = false
		s.mu.Unlock()
		return
	}
	s.unloadPending = false
	dicts := s.dictionaries
	name := s.name
	s.mu.Unlock()

	unloaded := 0
	for _, d := range dicts {
		unloaded += d.UnloadAll()
	}
	s.releaseRenderParameters()
	s.logger().Info("scene unloaded", "scene", name, "resources", unloaded)
	s.publish(func(m *messaging.Messenger) {
		messaging.Publish(m, SceneUnloaded{SceneID: s.id, Resources: unloaded})
	})
}

func (s *scene) loadedDictionaries() []*resource.Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*resource.Dictionary, len(s.dictionaries))
	copy(out, s.dictionaries)
	return out
}

func (s *scene) Update(state *frame.UpdateState) error {
	if s.closed.Load() {
		return ErrSceneClosed
	}
	s.advanceClock(state)

	if m := s.Messenger(); m != nil {
		restore := m.Install()
		defer restore()
	}

	if err := s.components.update(state); err != nil {
		return err
	}

	if n := s.beforeUpdate.drainSnapshot(); n > 0 {
		s.logger().Debug("before-update queue drained", "scene", s.Name(), "actions", n)
	}

	s.processPendingUnload()
	for _, d := range s.loadedDictionaries() {
		d.UpdateLoaded(state)
	}

	for _, l := range s.Layers() {
		if err := l.update(state); err != nil {
			return fmt.Errorf("scene %q: %w", s.Name(), err)
		}
	}

	s.polls.check()
	return nil
}

func (s *scene) UpdateBesideRender(state *frame.UpdateState) error {
	if s.closed.Load() {
		return ErrSceneClosed
	}
	if n := s.besideRender.drainAll(); n > 0 {
		s.logger().Debug("beside-render queue drained", "scene", s.Name(), "actions", n)
	}

	layers := s.Layers()
	for _, l := range layers {
		l.refreshVisibility()
	}
	for _, v := range s.Views() {
		v.ResetFilterChanges()
	}
	for _, l := range layers {
		if err := l.updateBesideRender(state); err != nil {
			return fmt.Errorf("scene %q: %w", s.Name(), err)
		}
	}
	return nil
}

// RenderContext is pushed on the render state while a scene renders. Object Render hooks
// read it with rs.Context().(*scene.RenderContext).
type RenderContext struct {
	Scene      Scene
	Parameters *RenderParameters
	Resources  *resource.Dictionary
	// Layer is the layer currently being drawn.
	Layer *Layer
}

func (s *scene) Render(rs *frame.RenderState) error {
	return s.renderPass(rs, false)
}

func (s *scene) Render2DOverlay(rs *frame.RenderState) error {
	rs.SetOverlay(true)
	defer rs.SetOverlay(false)
	return s.renderPass(rs, true)
}

func (s *scene) renderPass(rs *frame.RenderState, overlay bool) error {
	if s.closed.Load() {
		return ErrSceneClosed
	}
	d := rs.Device()
	dict := s.dictionaryFor(d)
	if dict == nil {
		return fmt.Errorf("%w: %s", ErrNoResourceDictionary, d.Name())
	}

	v := rs.View()
	s.mu.RLock()
	registered := v.ViewIndex() >= 0 && v.ViewIndex() < len(s.views) && s.views[v.ViewIndex()] == v
	s.mu.RUnlock()
	if !registered {
		return ErrViewNotRegistered
	}

	dict.LoadPending()
	params, err := s.renderParameters(d)
	if err != nil {
		return err
	}
	if err := params.update(v, s.FrameClock()); err != nil {
		return err
	}

	ctx := &RenderContext{Scene: s, Parameters: params, Resources: dict}
	rs.PushContext(ctx)
	defer rs.PopContext()

	for _, l := range s.Layers() {
		if l.Empty() {
			continue
		}
		ctx.Layer = l
		if overlay {
			err = l.render2DOverlay(rs)
		} else {
			err = l.render(rs)
		}
		if err != nil {
			return fmt.Errorf("scene %q: %w", s.Name(), err)
		}
	}
	return nil
}

func (s *scene) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.beforeUpdate.close(ErrSceneClosed)
	s.besideRender.close(ErrSceneClosed)
	s.polls.close(ErrSceneClosed)
	for _, d := range s.loadedDictionaries() {
		d.UnloadAll()
	}
	s.releaseRenderParameters()
	s.logger().Info("scene closed", "scene", s.Name())
}
