package device

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// Device is a single loaded GPU device. Every device-indexed collection in a scene
// (resource dictionaries, render parameters) is addressed by Index.
type Device interface {
	// Index returns the stable position of the device inside its Registry.
	//
	// Returns:
	//   - int: the zero-based device index
	Index() int

	// Name returns a human readable label for logging.
	//
	// Returns:
	//   - string: the device label
	Name() string

	// Release frees any GPU handles owned by the device. Safe to call more than once.
	Release()
}

// Poller is implemented by devices that need to be polled after each submitted frame
// so that completion callbacks run.
type Poller interface {
	// Poll processes pending device work.
	//
	// Parameters:
	//   - wait: true to block until the queue is idle
	Poll(wait bool)
}

// Loader produces devices for a Registry. Loaders are run once, in order, by Registry.Load.
type Loader interface {
	// Load creates the loader's devices. The first returned device must use firstIndex as its
	// Index, the next firstIndex+1, and so on.
	//
	// Parameters:
	//   - firstIndex: the index to assign to the first created device
	//
	// Returns:
	//   - []Device: the loaded devices
	//   - error: error if no device could be created
	Load(firstIndex int) ([]Device, error)
}

// Registry is the ordered set of loaded devices shared by the scenes of one engine.
// It replaces a process-wide graphics singleton: create one explicitly, Load it once and
// pass it to every scene. The set is fixed after Load; devices are never hot-added.
type Registry interface {
	// Load runs every configured Loader in order. Calling Load on a loaded registry is a no-op.
	//
	// Returns:
	//   - error: error if a loader fails; devices loaded before the failure are released
	Load() error

	// Loaded reports whether Load completed successfully and Release has not been called.
	//
	// Returns:
	//   - bool: true if devices are available
	Loaded() bool

	// Count returns the number of loaded devices.
	//
	// Returns:
	//   - int: the device count (0 before Load)
	Count() int

	// Device returns the device at the given index.
	//
	// Parameters:
	//   - index: the device index
	//
	// Returns:
	//   - Device: the device, or nil
	//   - bool: false if no device has that index
	Device(index int) (Device, bool)

	// Devices returns a copy of the loaded devices ordered by index.
	//
	// Returns:
	//   - []Device: the loaded devices
	Devices() []Device

	// Contains reports whether the given device belongs to this registry.
	//
	// Parameters:
	//   - d: the device to look up
	//
	// Returns:
	//   - bool: true if d is the registry's device at d.Index()
	Contains(d Device) bool

	// Release releases all devices in reverse load order and returns the registry to the unloaded state.
	Release()
}

type registry struct {
	mu *sync.RWMutex

	loaders []Loader
	devices []Device
	loaded  bool
}

var _ Registry = &registry{}

// NewRegistry creates an unloaded Registry. Configure loaders with the With* options,
// then call Load.
//
// Parameters:
//   - options: functional options adding loaders
//
// Returns:
//   - Registry: the new registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu: &sync.RWMutex{},
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *registry) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loaded {
		return nil
	}

	log := logging.Logger()
	var devices []Device
	for _, l := range r.loaders {
		loaded, err := l.Load(len(devices))
		if err != nil {
			releaseAll(devices)
			return fmt.Errorf("device: loader failed after %d device(s): %w", len(devices), err)
		}
		for i, d := range loaded {
			if d.Index() != len(devices)+i {
				releaseAll(append(devices, loaded...))
				return fmt.Errorf("device: %s reports index %d, expected %d", d.Name(), d.Index(), len(devices)+i)
			}
			log.Info("device loaded", "index", d.Index(), "name", d.Name())
		}
		devices = append(devices, loaded...)
	}

	r.devices = devices
	r.loaded = true
	return nil
}

func (r *registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

func (r *registry) Device(index int) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.devices) {
		return nil, false
	}
	return r.devices[index], true
}

func (r *registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

func (r *registry) Contains(d Device) bool {
	if d == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := d.Index()
	return i >= 0 && i < len(r.devices) && r.devices[i] == d
}

func (r *registry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	releaseAll(r.devices)
	r.devices = nil
	r.loaded = false
}

// releaseAll releases devices in reverse order.
func releaseAll(devices []Device) {
	for i := len(devices) - 1; i >= 0; i-- {
		devices[i].Release()
	}
}
