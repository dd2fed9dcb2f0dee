package components

// CameraOrbitOption is a functional option for configuring a CameraOrbit.
type CameraOrbitOption func(*CameraOrbit)

// WithOrbitSpeed sets the orbit speed in radians per second.
//
// Parameters:
//   - speed: the angular speed
//
// Returns:
//   - CameraOrbitOption: a function that applies the speed
func WithOrbitSpeed(speed float32) CameraOrbitOption {
	return func(o *CameraOrbit) {
		o.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed in world units per second.
//
// Parameters:
//   - speed: the radial speed
//
// Returns:
//   - CameraOrbitOption: a function that applies the speed
func WithZoomSpeed(speed float32) CameraOrbitOption {
	return func(o *CameraOrbit) {
		o.zoomSpeed = speed
	}
}

// WithRadiusLimits bounds the orbit radius.
//
// Parameters:
//   - minRadius: the closest distance to the target
//   - maxRadius: the farthest distance from the target
//
// Returns:
//   - CameraOrbitOption: a function that applies the limits
func WithRadiusLimits(minRadius, maxRadius float32) CameraOrbitOption {
	return func(o *CameraOrbit) {
		o.minRadius = minRadius
		o.maxRadius = maxRadius
	}
}

// WithElevationLimits bounds the orbit elevation in radians.
//
// Parameters:
//   - minElevation: the lowest elevation
//   - maxElevation: the highest elevation
//
// Returns:
//   - CameraOrbitOption: a function that applies the limits
func WithElevationLimits(minElevation, maxElevation float32) CameraOrbitOption {
	return func(o *CameraOrbit) {
		o.minElevation = minElevation
		o.maxElevation = maxElevation
	}
}
