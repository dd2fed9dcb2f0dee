package device

import "github.com/gogpu/gpucontext"

// RegistryBuilderOption is a functional option for configuring a Registry.
// Use the With* functions to create options.
type RegistryBuilderOption func(r *registry)

// WithLoader appends a device loader. Loaders run in the order they were added.
//
// Parameters:
//   - l: the loader to add
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithLoader(l Loader) RegistryBuilderOption {
	return func(r *registry) {
		if l != nil {
			r.loaders = append(r.loaders, l)
		}
	}
}

// WithHeadlessDevices appends n GPU-less devices. Headless devices accept resources and draw
// commands but own no GPU handles, which makes them suitable for servers and tests.
//
// Parameters:
//   - n: the number of headless devices to create
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithHeadlessDevices(n int) RegistryBuilderOption {
	return WithLoader(HeadlessLoader(n))
}

// WithProviders appends one device per host-supplied gpucontext.DeviceProvider.
//
// Parameters:
//   - providers: the device providers owned by the host application
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithProviders(providers ...gpucontext.DeviceProvider) RegistryBuilderOption {
	return WithLoader(ProviderLoader(providers...))
}
