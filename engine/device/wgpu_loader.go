package device

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUDevice is a Device backed by a WebGPU device and queue.
type WGPUDevice interface {
	Device

	// WGPU returns the underlying WebGPU device, or nil after Release.
	//
	// Returns:
	//   - *wgpu.Device: the device handle
	WGPU() *wgpu.Device

	// Queue returns the device's submission queue, or nil after Release.
	//
	// Returns:
	//   - *wgpu.Queue: the queue handle
	Queue() *wgpu.Queue
}

type wgpuDevice struct {
	mu *sync.Mutex

	index int
	name  string

	instance *wgpu.Instance // only set on the device that owns the shared instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

var _ WGPUDevice = &wgpuDevice{}

func (d *wgpuDevice) Index() int   { return d.index }
func (d *wgpuDevice) Name() string { return d.name }

func (d *wgpuDevice) WGPU() *wgpu.Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device
}

func (d *wgpuDevice) Queue() *wgpu.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return
	}
	d.queue = nil
	d.device.Release()
	d.device = nil
	d.adapter.Release()
	d.adapter = nil
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// WGPULoader requests WebGPU adapters and devices. By default it loads the primary hardware
// adapter; WithFallbackDevice adds the software fallback adapter as a second device.
type WGPULoader struct {
	forceFallback     bool
	includeFallback   bool
	surfaceDescriptor *wgpu.SurfaceDescriptor
	maxBindGroups     uint32
}

var _ Loader = &WGPULoader{}

// NewWGPULoader creates a WebGPU device loader.
//
// Parameters:
//   - options: functional options to configure adapter selection
//
// Returns:
//   - *WGPULoader: the configured loader
func NewWGPULoader(options ...WGPULoaderOption) *WGPULoader {
	l := &WGPULoader{maxBindGroups: 8}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *WGPULoader) Load(firstIndex int) ([]Device, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	instance := wgpu.CreateInstance(nil)
	var surface *wgpu.Surface
	if l.surfaceDescriptor != nil {
		surface = instance.CreateSurface(l.surfaceDescriptor)
		defer surface.Release()
	}

	fallbacks := []bool{l.forceFallback}
	if l.includeFallback && !l.forceFallback {
		fallbacks = append(fallbacks, true)
	}

	var devices []Device
	for _, fallback := range fallbacks {
		a, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
			ForceFallbackAdapter: fallback,
			CompatibleSurface:    surface,
		})
		if err != nil {
			if len(devices) == 0 {
				instance.Release()
				return nil, fmt.Errorf("device: request adapter (fallback=%t): %w", fallback, err)
			}
			logging.Logger().Warn("optional adapter unavailable", "fallback", fallback, "err", err)
			continue
		}

		index := firstIndex + len(devices)
		limits := wgpu.DefaultLimits()
		limits.MaxBindGroups = l.maxBindGroups
		d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
			Label: fmt.Sprintf("Device %d", index),
			RequiredLimits: &wgpu.RequiredLimits{
				Limits: limits,
			},
		})
		if err != nil {
			a.Release()
			for i := len(devices) - 1; i >= 0; i-- {
				devices[i].Release()
			}
			if len(devices) == 0 {
				instance.Release()
			}
			return nil, fmt.Errorf("device: request device %d: %w", index, err)
		}

		wd := &wgpuDevice{
			mu:      &sync.Mutex{},
			index:   index,
			name:    fmt.Sprintf("wgpu-%d", index),
			adapter: a,
			device:  d,
			queue:   d.GetQueue(),
		}
		if fallback {
			wd.name = fmt.Sprintf("wgpu-fallback-%d", index)
		}
		if len(devices) == 0 {
			wd.instance = instance
		}
		devices = append(devices, wd)
	}
	return devices, nil
}
