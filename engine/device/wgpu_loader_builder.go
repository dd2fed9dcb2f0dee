package device

import "github.com/cogentcore/webgpu/wgpu"

// WGPULoaderOption is a functional option for configuring a WGPULoader.
type WGPULoaderOption func(l *WGPULoader)

// WithForceFallbackAdapter forces the software fallback adapter for the primary device.
// Requires a software Vulkan ICD such as SwiftShader or lavapipe.
//
// Parameters:
//   - force: true to use the fallback adapter
//
// Returns:
//   - WGPULoaderOption: option function to apply
func WithForceFallbackAdapter(force bool) WGPULoaderOption {
	return func(l *WGPULoader) {
		l.forceFallback = force
	}
}

// WithFallbackDevice additionally loads the software fallback adapter as a second device,
// giving scenes a two-device setup on single-GPU machines.
//
// Parameters:
//   - include: true to load the fallback adapter as an extra device
//
// Returns:
//   - WGPULoaderOption: option function to apply
func WithFallbackDevice(include bool) WGPULoaderOption {
	return func(l *WGPULoader) {
		l.includeFallback = include
	}
}

// WithCompatibleSurface restricts adapter selection to adapters able to present to the
// surface described by desc (see window.Window.SurfaceDescriptor).
//
// Parameters:
//   - desc: the platform surface descriptor
//
// Returns:
//   - WGPULoaderOption: option function to apply
func WithCompatibleSurface(desc *wgpu.SurfaceDescriptor) WGPULoaderOption {
	return func(l *WGPULoader) {
		l.surfaceDescriptor = desc
	}
}

// WithMaxBindGroups raises the MaxBindGroups device limit. Defaults to 8.
//
// Parameters:
//   - n: the required bind group limit
//
// Returns:
//   - WGPULoaderOption: option function to apply
func WithMaxBindGroups(n uint32) WGPULoaderOption {
	return func(l *WGPULoader) {
		if n > 0 {
			l.maxBindGroups = n
		}
	}
}
