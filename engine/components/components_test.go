package components

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func setup(t *testing.T) (scene.Scene, *view.Info) {
	t.Helper()
	r := device.NewRegistry(device.WithHeadlessDevices(1))
	require.NoError(t, r.Load())
	s := scene.NewScene("components", r)
	d, _ := r.Device(0)
	v := view.New(d, camera.NewCamera(camera.WithPosition(0, 0, 10)))
	require.NoError(t, s.RegisterView(v))
	return s, v
}

func step(t *testing.T, s scene.Scene, dt float32, inputs ...common.InputFrame) {
	t.Helper()
	require.NoError(t, s.Update(&frame.UpdateState{DeltaTime: dt, Inputs: inputs}))
}

func keys(v *view.Info, codes ...uint32) common.InputFrame {
	in := common.InputFrame{ViewIndex: v.ViewIndex()}
	for _, c := range codes {
		in.Events = append(in.Events, common.InputEvent{Type: common.InputKeyDown, KeyCode: c})
	}
	return in
}

func distance(a, b [3]float32) float32 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math32.Sqrt(dx*dx + dy*dy + dz*dz)
}

func position(v *view.Info) [3]float32 {
	x, y, z := v.Camera().Position()
	return [3]float32{x, y, z}
}

func TestCameraTweenArrivesAndDetaches(t *testing.T) {
	s, v := setup(t)
	arrived := 0
	tw := NewCameraTween([3]float32{10, 0, 0}, [3]float32{0, 1, 0}, 1, WithEasing(ease.Linear), WithOnDone(func(got *view.Info) {
		assert.Same(t, v, got)
		arrived++
	}))
	require.NoError(t, s.AttachComponent(tw, v))
	step(t, s, 0)
	require.Len(t, s.Components(), 1)

	step(t, s, 0.5)
	mid := position(v)
	assert.InDelta(t, 5, mid[0], 1e-3)
	assert.InDelta(t, 5, mid[2], 1e-3)

	step(t, s, 0.6)
	assert.Equal(t, 1, arrived)
	assert.InDelta(t, 0, distance(position(v), [3]float32{10, 0, 0}), 1e-3)
	_, ty, _ := v.Camera().Target()
	assert.InDelta(t, 1, ty, 1e-3)
	assert.Empty(t, s.Components(), "the tween detaches itself on arrival")
}

func TestCameraMotionGroupIsExclusive(t *testing.T) {
	s, v := setup(t)
	tw := NewCameraTween([3]float32{0, 0, 50}, [3]float32{}, 10)
	orbit := NewCameraOrbit()

	require.NoError(t, s.AttachComponent(tw, v))
	step(t, s, 0)
	require.NoError(t, s.AttachComponent(orbit, v))
	step(t, s, 0)

	comps := s.Components()
	require.Len(t, comps, 1)
	assert.Same(t, orbit, comps[0].Component)
}

func TestCameraOrbitKeys(t *testing.T) {
	s, v := setup(t)
	orbit := NewCameraOrbit(WithOrbitSpeed(1), WithZoomSpeed(10), WithRadiusLimits(2, 20))
	require.NoError(t, s.AttachComponent(orbit, v))
	step(t, s, 0)

	step(t, s, 0.1)
	assert.Equal(t, [3]float32{0, 0, 10}, position(v), "no input leaves the camera alone")

	step(t, s, 0.5, keys(v, common.KeyD))
	p := position(v)
	assert.Greater(t, p[0], float32(0))
	assert.InDelta(t, 10, distance(p, [3]float32{}), 1e-3, "orbiting keeps the radius")

	step(t, s, 0.5, keys(v, common.KeyW))
	assert.Greater(t, position(v)[1], float32(0))

	step(t, s, 10, keys(v, common.KeyE))
	assert.InDelta(t, 2, distance(position(v), [3]float32{}), 1e-3, "zoom clamps to the minimum radius")

	step(t, s, 1, common.InputFrame{ViewIndex: v.ViewIndex() + 1, Events: keys(v, common.KeyQ).Events})
	assert.InDelta(t, 2, distance(position(v), [3]float32{}), 1e-3, "other views' input is ignored")
}

func TestCameraOrbitElevationClamped(t *testing.T) {
	s, v := setup(t)
	orbit := NewCameraOrbit(WithElevationLimits(0, 0.5))
	require.NoError(t, s.AttachComponent(orbit, v))
	step(t, s, 0)

	step(t, s, 100, keys(v, common.KeyW))
	p := position(v)
	assert.InDelta(t, math32.Sin(0.5)*10, p[1], 1e-3)
}

func TestFrameCounter(t *testing.T) {
	s, _ := setup(t)
	m := messaging.New("main")
	s.AttachMessenger(m)
	var stats []FrameStats
	messaging.Subscribe(m, func(fs FrameStats) { stats = append(stats, fs) })

	fc := NewFrameCounter(time.Second)
	require.NoError(t, s.AttachComponent(fc, nil))
	step(t, s, 0)
	for range 20 {
		step(t, s, 0.1)
	}

	assert.Equal(t, uint64(20), fc.Frames())
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(10), stats[0].Frames)
	assert.Equal(t, s.ID(), stats[0].SceneID)
	assert.InDelta(t, 10, fc.FPS(), 1e-6)
}
