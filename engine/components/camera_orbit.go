package components

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/chewxy/math32"
)

// orbitState holds the spherical coordinates of one view's camera around the orbit target.
type orbitState struct {
	target    [3]float32
	radius    float32
	azimuth   float32
	elevation float32
}

// CameraOrbit is a view-specific component that orbits the view's camera around its current
// target from keyboard input: A/D change the azimuth, W/S the elevation and Q/E the radius.
// One CameraOrbit may be attached to several views; each view keeps its own orbit state.
type CameraOrbit struct {
	mu *sync.RWMutex

	orbitSpeed float32
	zoomSpeed  float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32
}

var _ scene.Component = &CameraOrbit{}

// NewCameraOrbit creates an orbit component.
//
// Parameters:
//   - options: functional options to configure speeds and limits
//
// Returns:
//   - *CameraOrbit: the newly created component
func NewCameraOrbit(options ...CameraOrbitOption) *CameraOrbit {
	o := &CameraOrbit{
		mu:           &sync.RWMutex{},
		orbitSpeed:   1.5,
		zoomSpeed:    20,
		minRadius:    1,
		maxRadius:    2000,
		minElevation: -math32.Pi/2 + 0.05,
		maxElevation: math32.Pi/2 - 0.05,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

func (o *CameraOrbit) IsViewSpecific() bool   { return true }
func (o *CameraOrbit) ComponentGroup() string { return CameraMotionGroup }

// Attach derives the orbit from the camera's current position and target.
func (o *CameraOrbit) Attach(_ *scene.Manipulator, v *view.Info) (any, error) {
	cam := v.Camera()
	px, py, pz := cam.Position()
	tx, ty, tz := cam.Target()
	dx, dy, dz := px-tx, py-ty, pz-tz

	st := &orbitState{target: [3]float32{tx, ty, tz}}
	st.radius = math32.Sqrt(dx*dx + dy*dy + dz*dz)
	if st.radius > 0 {
		st.elevation = math32.Asin(dy / st.radius)
		st.azimuth = math32.Atan2(dx, dz)
	}
	o.clamp(st)
	return st, nil
}

func (o *CameraOrbit) Detach(*scene.Manipulator, *view.Info, any) error { return nil }

func (o *CameraOrbit) Update(state *frame.UpdateState, v *view.Info, ctx any) error {
	st := ctx.(*orbitState)
	input, ok := state.InputFor(v.ViewIndex())
	if !ok {
		return nil
	}

	o.mu.RLock()
	step := o.orbitSpeed * state.DeltaTime
	zoom := o.zoomSpeed * state.DeltaTime
	o.mu.RUnlock()

	changed := false
	for _, e := range input.Events {
		if e.Type == common.InputScroll {
			st.radius -= e.Delta * zoom
			changed = true
		}
	}
	bindings := []struct {
		key   uint32
		apply func()
	}{
		{common.KeyA, func() { st.azimuth -= step }},
		{common.KeyD, func() { st.azimuth += step }},
		{common.KeyW, func() { st.elevation += step }},
		{common.KeyS, func() { st.elevation -= step }},
		{common.KeyQ, func() { st.radius += zoom }},
		{common.KeyE, func() { st.radius -= zoom }},
	}
	for _, b := range bindings {
		if input.KeyDown(b.key) {
			b.apply()
			changed = true
		}
	}
	if !changed {
		return nil
	}

	o.clamp(st)
	v.Camera().LookAt(orbitPosition(st), st.target)
	return nil
}

func (o *CameraOrbit) clamp(st *orbitState) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	st.radius = math32.Max(o.minRadius, math32.Min(o.maxRadius, st.radius))
	st.elevation = math32.Max(o.minElevation, math32.Min(o.maxElevation, st.elevation))
}

// orbitPosition converts spherical coordinates around the target into a camera position.
func orbitPosition(st *orbitState) [3]float32 {
	sinElev, cosElev := math32.Sincos(st.elevation)
	sinAzim, cosAzim := math32.Sincos(st.azimuth)
	return [3]float32{
		st.target[0] + st.radius*cosElev*sinAzim,
		st.target[1] + st.radius*sinElev,
		st.target[2] + st.radius*cosElev*cosAzim,
	}
}
