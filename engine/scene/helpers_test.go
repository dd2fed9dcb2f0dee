package scene

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T, devices int) device.Registry {
	t.Helper()
	r := device.NewRegistry(device.WithHeadlessDevices(devices))
	require.NoError(t, r.Load())
	return r
}

func newTestScene(t *testing.T, devices int, options ...SceneBuilderOption) *scene {
	t.Helper()
	return NewScene("test", newRegistry(t, devices), options...).(*scene)
}

func newTestView(t *testing.T, s Scene, deviceIndex int, options ...view.ViewBuilderOption) *view.Info {
	t.Helper()
	d, ok := s.Registry().Device(deviceIndex)
	require.True(t, ok)
	return view.New(d, camera.NewCamera(camera.WithPosition(0, 0, 10)), options...)
}

func tick() *frame.UpdateState {
	return &frame.UpdateState{DeltaTime: 0.016, Elapsed: 16 * time.Millisecond, FrameID: 1}
}

// dummyResource records its lifecycle calls.
type dummyResource struct {
	mu      sync.Mutex
	loaded  bool
	touched bool
	loads   int
	updates int
}

func (d *dummyResource) Load(device.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = true
	d.loads++
	return nil
}

func (d *dummyResource) Unload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = false
}

func (d *dummyResource) IsLoaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

func (d *dummyResource) Update(*frame.UpdateState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates++
}

func (d *dummyResource) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.touched = true
}

// testObject draws one command per render and records hook calls.
type testObject struct {
	ObjectBase

	name      string
	updates   int
	beside    int
	overlays  int
	updateErr error
	onUpdate  func()
}

func newTestObject(name string) *testObject {
	return &testObject{name: name}
}

func (o *testObject) Update(*frame.UpdateState) error {
	o.updates++
	if o.onUpdate != nil {
		o.onUpdate()
	}
	return o.updateErr
}

func (o *testObject) UpdateBesideRender(*frame.UpdateState) error {
	o.beside++
	return nil
}

func (o *testObject) Render(rs *frame.RenderState) error {
	DrawObject(rs, o, o.name)
	return nil
}

func (o *testObject) Render2DOverlay(rs *frame.RenderState) error {
	o.overlays++
	DrawObject(rs, o, o.name)
	return nil
}

// testComponent records hook invocations.
type testComponent struct {
	name         string
	viewSpecific bool
	group        string

	attaches  int
	detaches  int
	updates   int
	attachErr error
	detachErr error
	updateErr error

	lastManipulator *Manipulator
	onAttach        func(m *Manipulator)
	log             *[]string
}

func (c *testComponent) IsViewSpecific() bool   { return c.viewSpecific }
func (c *testComponent) ComponentGroup() string { return c.group }

func (c *testComponent) Attach(m *Manipulator, _ *view.Info) (any, error) {
	c.attaches++
	c.lastManipulator = m
	c.record("attach")
	if c.onAttach != nil {
		c.onAttach(m)
	}
	if c.attachErr != nil {
		return nil, c.attachErr
	}
	return c.name + "-ctx", nil
}

func (c *testComponent) Detach(m *Manipulator, _ *view.Info, ctx any) error {
	c.detaches++
	c.lastManipulator = m
	c.record("detach")
	if ctx != c.name+"-ctx" {
		return errors.New("unexpected context")
	}
	return c.detachErr
}

func (c *testComponent) Update(*frame.UpdateState, *view.Info, any) error {
	c.updates++
	c.record("update")
	return c.updateErr
}

func (c *testComponent) record(event string) {
	if c.log != nil {
		*c.log = append(*c.log, c.name+":"+event)
	}
}
