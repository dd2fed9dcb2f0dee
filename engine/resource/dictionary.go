package resource

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// Dictionary is the resource container of one device. Entries keep insertion order so
// loads, updates and unloads run deterministically.
// Thread-safe for concurrent access; resource lifecycle calls run outside the lock.
type Dictionary struct {
	mu *sync.RWMutex

	device  device.Device
	entries map[Key]Resource
	order   []Key
}

// NewDictionary creates an empty dictionary for d.
//
// Parameters:
//   - d: the owning device (must not be nil)
//
// Returns:
//   - *Dictionary: the new dictionary
func NewDictionary(d device.Device) *Dictionary {
	if d == nil {
		panic("resource: NewDictionary requires a non-nil Device")
	}
	return &Dictionary{
		mu:      &sync.RWMutex{},
		device:  d,
		entries: make(map[Key]Resource),
	}
}

// Device returns the owning device.
func (d *Dictionary) Device() device.Device { return d.device }

// Len returns the number of resources.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// Keys returns the resource keys in insertion order.
func (d *Dictionary) Keys() []Key {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Key, len(d.order))
	copy(out, d.order)
	return out
}

// Add stores r under key. The resource is loaded lazily by LoadPending.
//
// Parameters:
//   - key: a non-empty key
//   - r: the resource instance owned by this device
//
// Returns:
//   - error: ErrExists if key is already taken
func (d *Dictionary) Add(key Key, r Resource) error {
	if r == nil {
		panic("resource: Add requires a non-nil Resource")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[key]; ok {
		return fmt.Errorf("%w: %s on %s", ErrExists, key, d.device.Name())
	}
	d.entries[key] = r
	d.order = append(d.order, key)
	return nil
}

// Contains reports whether a resource is stored under key.
func (d *Dictionary) Contains(key Key) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[key]
	return ok
}

// Get returns the resource stored under key.
//
// Parameters:
//   - key: the resource key
//
// Returns:
//   - Resource: the stored resource
//   - error: ErrNotFound if key is unknown
func (d *Dictionary) Get(key Key) (Resource, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrNotFound, key, d.device.Name())
	}
	return r, nil
}

// Get returns the resource stored under key as a T.
//
// Parameters:
//   - d: the dictionary to read
//   - key: the resource key
//
// Returns:
//   - T: the typed resource
//   - error: ErrNotFound if key is unknown, ErrTypeMismatch if the resource is not a T
func Get[T Resource](d *Dictionary, key Key) (T, error) {
	var zero T
	r, err := d.Get(key)
	if err != nil {
		return zero, err
	}
	typed, ok := r.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s on %s holds %T, want %T", ErrTypeMismatch, key, d.device.Name(), r, zero)
	}
	return typed, nil
}

// Remove deletes the resource stored under key, unloading it first if loaded.
//
// Returns:
//   - bool: false if key was unknown
func (d *Dictionary) Remove(key Key) bool {
	d.mu.Lock()
	r, ok := d.entries[key]
	if ok {
		delete(d.entries, key)
		for i, k := range d.order {
			if k == key {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.mu.Unlock()

	if ok && r.IsLoaded() {
		r.Unload()
	}
	return ok
}

// LoadPending loads every resource that is not loaded yet. Failures are logged and the
// resource stays pending so the next render retries it.
//
// Returns:
//   - int: the number of resources loaded by this call
func (d *Dictionary) LoadPending() int {
	loaded := 0
	for _, r := range d.snapshot() {
		if r.IsLoaded() {
			continue
		}
		if err := r.Load(d.device); err != nil {
			logging.Logger().Warn("resource load failed", "device", d.device.Name(), "err", err)
			continue
		}
		loaded++
	}
	return loaded
}

// UpdateLoaded updates every loaded resource that implements Updatable.
func (d *Dictionary) UpdateLoaded(state *frame.UpdateState) {
	for _, r := range d.snapshot() {
		if u, ok := r.(Updatable); ok && r.IsLoaded() {
			u.Update(state)
		}
	}
}

// UnloadAll unloads every loaded resource but keeps the entries, so they load again on
// the next render.
//
// Returns:
//   - int: the number of resources unloaded
func (d *Dictionary) UnloadAll() int {
	n := 0
	for _, r := range d.snapshot() {
		if r.IsLoaded() {
			r.Unload()
			n++
		}
	}
	return n
}

// Clear unloads and removes every resource.
func (d *Dictionary) Clear() {
	d.UnloadAll()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = make(map[Key]Resource)
	d.order = nil
}

// snapshot returns the resources in insertion order.
func (d *Dictionary) snapshot() []Resource {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Resource, 0, len(d.order))
	for _, k := range d.order {
		out = append(out, d.entries[k])
	}
	return out
}
