package components

import (
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// tweenState animates the six camera coordinates of one view.
type tweenState struct {
	scene scene.Scene
	// position x/y/z followed by target x/y/z
	tweens [6]*gween.Tween
	done   bool
}

// CameraTween is a view-specific component that flies the view's camera from wherever it is
// at attach time to a fixed position and target. When the flight finishes the component
// detaches itself from the view and calls the optional completion callback.
type CameraTween struct {
	position [3]float32
	target   [3]float32
	duration float32
	easing   ease.TweenFunc
	onDone   func(v *view.Info)
}

var _ scene.Component = &CameraTween{}

// NewCameraTween creates a fly-to component.
//
// Parameters:
//   - position: the final camera position
//   - target: the final camera target
//   - duration: the flight time in seconds
//   - options: functional options to set easing and a completion callback
//
// Returns:
//   - *CameraTween: the newly created component
func NewCameraTween(position, target [3]float32, duration float32, options ...CameraTweenOption) *CameraTween {
	t := &CameraTween{
		position: position,
		target:   target,
		duration: duration,
		easing:   ease.InOutQuad,
	}
	for _, option := range options {
		option(t)
	}
	return t
}

func (t *CameraTween) IsViewSpecific() bool   { return true }
func (t *CameraTween) ComponentGroup() string { return CameraMotionGroup }

func (t *CameraTween) Attach(m *scene.Manipulator, v *view.Info) (any, error) {
	s, err := m.Scene()
	if err != nil {
		return nil, err
	}
	cam := v.Camera()
	px, py, pz := cam.Position()
	tx, ty, tz := cam.Target()
	from := [6]float32{px, py, pz, tx, ty, tz}
	to := [6]float32{t.position[0], t.position[1], t.position[2], t.target[0], t.target[1], t.target[2]}

	st := &tweenState{scene: s}
	for i := range st.tweens {
		st.tweens[i] = gween.New(from[i], to[i], t.duration, t.easing)
	}
	return st, nil
}

func (t *CameraTween) Detach(*scene.Manipulator, *view.Info, any) error { return nil }

func (t *CameraTween) Update(state *frame.UpdateState, v *view.Info, ctx any) error {
	st := ctx.(*tweenState)
	if st.done {
		return nil
	}

	var values [6]float32
	finished := true
	for i, tw := range st.tweens {
		val, done := tw.Update(state.DeltaTime)
		values[i] = val
		finished = finished && done
	}
	v.Camera().LookAt([3]float32{values[0], values[1], values[2]}, [3]float32{values[3], values[4], values[5]})
	if !finished {
		return nil
	}

	st.done = true
	if t.onDone != nil {
		t.onDone(v)
	}
	return st.scene.DetachComponent(t, v)
}
