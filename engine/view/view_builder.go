package view

// ViewBuilderOption is a functional option for configuring a view.
// Use the With* functions to create options.
type ViewBuilderOption func(v *Info)

// WithName sets the view's label used in logs.
//
// Parameters:
//   - name: the view label
//
// Returns:
//   - ViewBuilderOption: option function to apply
func WithName(name string) ViewBuilderOption {
	return func(v *Info) {
		v.name = name
	}
}

// WithViewport sets the initial viewport size in pixels and updates the camera aspect ratio.
//
// Parameters:
//   - width: viewport width in pixels
//   - height: viewport height in pixels
//
// Returns:
//   - ViewBuilderOption: option function to apply
func WithViewport(width, height int) ViewBuilderOption {
	return func(v *Info) {
		if width > 0 && height > 0 {
			v.width, v.height = width, height
			v.camera.SetAspect(float32(width) / float32(height))
		}
	}
}

// WithFilters installs the initial filter list.
//
// Parameters:
//   - filters: the filters to install
//
// Returns:
//   - ViewBuilderOption: option function to apply
func WithFilters(filters ...Filter) ViewBuilderOption {
	return func(v *Info) {
		v.filters = append(v.filters, filters...)
	}
}
