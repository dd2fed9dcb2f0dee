package device

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// ProviderDevice adapts a host-owned gpucontext.DeviceProvider (for example a gogpu window)
// into a registry Device. The host keeps ownership of the underlying GPU device: Release only
// detaches the provider, it never destroys it.
type ProviderDevice struct {
	index    int
	name     string
	provider atomic.Pointer[gpucontext.DeviceProvider]
}

var (
	_ Device = &ProviderDevice{}
	_ Poller = &ProviderDevice{}
)

// FromProvider wraps a device provider.
//
// Parameters:
//   - index: the device index inside its registry
//   - provider: the host-owned provider (must not be nil)
//
// Returns:
//   - *ProviderDevice: the adapted device
func FromProvider(index int, provider gpucontext.DeviceProvider) *ProviderDevice {
	if provider == nil {
		panic("device: FromProvider requires a non-nil DeviceProvider")
	}
	d := &ProviderDevice{index: index, name: fmt.Sprintf("provider-%d", index)}
	d.provider.Store(&provider)
	return d
}

func (d *ProviderDevice) Index() int   { return d.index }
func (d *ProviderDevice) Name() string { return d.name }
func (d *ProviderDevice) Release()     { d.provider.Store(nil) }

// Provider returns the wrapped provider, or nil after Release.
func (d *ProviderDevice) Provider() gpucontext.DeviceProvider {
	if p := d.provider.Load(); p != nil {
		return *p
	}
	return nil
}

// SurfaceFormat returns the provider's preferred surface format, or TextureFormatUndefined
// after Release.
func (d *ProviderDevice) SurfaceFormat() gputypes.TextureFormat {
	if p := d.Provider(); p != nil {
		return p.SurfaceFormat()
	}
	return gputypes.TextureFormatUndefined
}

// gpuPoller is implemented by concrete provider devices that process GPU callbacks.
// gpucontext.Device itself is only a type token.
type gpuPoller interface {
	Poll(wait bool)
}

// Poll forwards to the provider's device when it can poll; otherwise it does nothing.
func (d *ProviderDevice) Poll(wait bool) {
	p := d.Provider()
	if p == nil {
		return
	}
	if q, ok := p.Device().(gpuPoller); ok {
		q.Poll(wait)
	}
}

type providerLoader []gpucontext.DeviceProvider

// ProviderLoader returns a Loader producing one ProviderDevice per provider.
func ProviderLoader(providers ...gpucontext.DeviceProvider) Loader {
	return providerLoader(providers)
}

func (l providerLoader) Load(firstIndex int) ([]Device, error) {
	out := make([]Device, 0, len(l))
	for i, p := range l {
		if p == nil || p.Device() == nil {
			return nil, errors.New("device: provider has no GPU device")
		}
		out = append(out, FromProvider(firstIndex+i, p))
	}
	return out, nil
}
