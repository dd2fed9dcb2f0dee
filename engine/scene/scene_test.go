package scene

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSceneHasDefaultLayer(t *testing.T) {
	s := newTestScene(t, 1)
	layers := s.Layers()
	require.Len(t, layers, 1)
	assert.Equal(t, DefaultLayerName, layers[0].Name())
	assert.True(t, layers[0].IsDefault())
	assert.NotZero(t, s.ID())
	assert.NotEqual(t, s.ID(), newTestScene(t, 1).ID())
}

func TestNewSceneRequiresRegistry(t *testing.T) {
	assert.Panics(t, func() { NewScene("x", nil) })
}

func TestDefaultLayerInvariant(t *testing.T) {
	s := newTestScene(t, 1)
	rng := rand.New(rand.NewPCG(1, 2))
	names := []string{DefaultLayerName, "A", "B", "C", "D"}

	for range 500 {
		name := names[rng.IntN(len(names))]
		if rng.IntN(2) == 0 {
			_, err := s.AddLayer(name)
			if err != nil {
				assert.ErrorIs(t, err, ErrDuplicateLayer)
			}
		} else {
			err := s.RemoveLayer(name)
			if name == DefaultLayerName {
				assert.ErrorIs(t, err, ErrDefaultLayer)
			} else if err != nil {
				assert.ErrorIs(t, err, ErrLayerNotFound)
			}
		}

		count := 0
		for _, l := range s.Layers() {
			if l.Name() == DefaultLayerName {
				count++
			}
		}
		require.Equal(t, 1, count)
	}
}

func TestAddLayerErrors(t *testing.T) {
	s := newTestScene(t, 1)
	_, err := s.AddLayer("")
	assert.ErrorIs(t, err, ErrInvalidLayerName)

	_, err = s.AddLayer("X")
	require.NoError(t, err)
	_, err = s.AddLayer("X")
	assert.ErrorIs(t, err, ErrDuplicateLayer)

	assert.ErrorIs(t, s.SetLayerOrderID("missing", 1), ErrLayerNotFound)
	assert.ErrorIs(t, s.ClearLayer("missing"), ErrLayerNotFound)
	assert.ErrorIs(t, s.RemoveLayer("missing"), ErrLayerNotFound)
}

func TestLayerOrdering(t *testing.T) {
	s := newTestScene(t, 1)
	_, err := s.AddLayer("X")
	require.NoError(t, err)
	require.NoError(t, s.SetLayerOrderID("X", -1))

	layers := s.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "X", layers[0].Name())
	assert.Equal(t, DefaultLayerName, layers[1].Name())
}

func TestLayerOrderTiesKeepInsertionOrder(t *testing.T) {
	s := newTestScene(t, 1)
	for _, name := range []string{"C", "A", "B"} {
		_, err := s.AddLayer(name)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetLayerOrderID("A", 5))
	require.NoError(t, s.SetLayerOrderID("A", 0))

	var got []string
	for _, l := range s.Layers() {
		got = append(got, l.Name())
	}
	assert.Equal(t, []string{DefaultLayerName, "C", "A", "B"}, got)
}

func TestPerDeviceResourceIndependence(t *testing.T) {
	const devices = 3
	s := newTestScene(t, devices)

	calls := 0
	instances := map[*dummyResource]struct{}{}
	key, err := AddTypedResource(s, func() *dummyResource {
		calls++
		r := &dummyResource{}
		instances[r] = struct{}{}
		return r
	}, resource.EmptyKey)
	require.NoError(t, err)
	assert.False(t, key.IsEmpty())
	assert.Equal(t, devices, calls)
	assert.Len(t, instances, devices)

	dicts, err := s.Dictionaries()
	require.NoError(t, err)
	require.Len(t, dicts, devices)
	for i, d := range dicts {
		assert.Equal(t, i, d.Device().Index())
		r, err := resource.Get[*dummyResource](d, key)
		require.NoError(t, err)
		assert.Contains(t, instances, r)
	}
}

func TestResourceEndToEnd(t *testing.T) {
	s := newTestScene(t, 2)

	key, err := s.AddResource(func() resource.Resource { return &dummyResource{} }, resource.EmptyKey)
	require.NoError(t, err)
	assert.False(t, key.IsEmpty())

	ok, err := s.ContainsResource(key)
	require.NoError(t, err)
	assert.True(t, ok)

	var seen []*dummyResource
	require.NoError(t, ManipulateResource(s, func(r *dummyResource) error {
		r.Touch()
		seen = append(seen, r)
		return nil
	}, key))
	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
	for _, r := range seen {
		assert.True(t, r.touched)
	}
}

func TestResourceErrors(t *testing.T) {
	s := newTestScene(t, 1)

	_, err := s.ContainsResource(resource.EmptyKey)
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, s.RemoveResource(resource.EmptyKey), ErrEmptyKey)
	assert.ErrorIs(t, ManipulateResource(s, func(*dummyResource) error { return nil }, resource.EmptyKey), ErrEmptyKey)

	key := resource.Named("mesh")
	_, err = AddTypedResource(s, func() *dummyResource { return &dummyResource{} }, key)
	require.NoError(t, err)
	_, err = AddTypedResource(s, func() *dummyResource { return &dummyResource{} }, key)
	assert.ErrorIs(t, err, ErrResourceExists)

	err = ManipulateResource(s, func(*resource.UniformBuffer) error { return nil }, key)
	assert.ErrorIs(t, err, resource.ErrTypeMismatch)
	err = ManipulateResource(s, func(*dummyResource) error { return nil }, resource.Named("other"))
	assert.ErrorIs(t, err, resource.ErrNotFound)

	boom := errors.New("boom")
	assert.ErrorIs(t, ManipulateResource(s, func(*dummyResource) error { return boom }, key), boom)

	require.NoError(t, s.RemoveResource(key))
	assert.ErrorIs(t, s.RemoveResource(key), resource.ErrNotFound)
	ok, err := s.ContainsResource(key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResourcesRequireLoadedDevices(t *testing.T) {
	s := NewScene("empty", device.NewRegistry())
	_, err := s.AddResource(func() resource.Resource { return &dummyResource{} }, resource.EmptyKey)
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestViewRegistrationErrors(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)

	require.NoError(t, s.RegisterView(v))
	assert.ErrorIs(t, s.RegisterView(v), ErrViewAlreadyRegistered)

	other := newTestView(t, s, 0)
	assert.ErrorIs(t, s.DeregisterView(other), ErrViewNotRegistered)

	foreign := view.New(device.NewHeadless(0), camera.NewCamera())
	assert.ErrorIs(t, s.RegisterView(foreign), ErrDeviceNotLoaded)

	unloaded := NewScene("unloaded", device.NewRegistry(device.WithHeadlessDevices(1)))
	assert.ErrorIs(t, unloaded.RegisterView(view.New(device.NewHeadless(0), camera.NewCamera())), ErrDeviceNotLoaded)
}

func TestViewIndicesReuseSmallestFree(t *testing.T) {
	s := newTestScene(t, 2)
	a, b, c := newTestView(t, s, 0), newTestView(t, s, 1), newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(a))
	require.NoError(t, s.RegisterView(b))
	require.NoError(t, s.RegisterView(c))
	assert.Equal(t, []int{0, 1, 2}, []int{a.ViewIndex(), b.ViewIndex(), c.ViewIndex()})

	require.NoError(t, s.DeregisterView(b))
	assert.Equal(t, view.Unregistered, b.ViewIndex())
	assert.Len(t, s.Views(), 2)

	d := newTestView(t, s, 1)
	require.NoError(t, s.RegisterView(d))
	assert.Equal(t, 1, d.ViewIndex())
	assert.Equal(t, []*view.Info{a, d, c}, s.Views())
}

func TestNewLayersRegisterExistingViews(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))

	l, err := s.AddLayer("late")
	require.NoError(t, err)
	require.NoError(t, s.AddObject(newTestObject("o"), "late"))
	require.NoError(t, s.UpdateBesideRender(tick()))

	visible, ok := l.Visible(v.ViewIndex())
	assert.True(t, ok)
	assert.Len(t, visible, 1)
}

func TestObjectOwnership(t *testing.T) {
	s := newTestScene(t, 1)
	other := newTestScene(t, 1)
	obj := newTestObject("o")

	assert.Zero(t, obj.ID())
	require.NoError(t, s.AddObject(obj, ""))
	assert.NotZero(t, obj.ID())
	assert.Equal(t, s.ID(), obj.SceneID())

	assert.ErrorIs(t, s.AddObject(obj, ""), ErrObjectOwned)
	assert.ErrorIs(t, other.AddObject(obj, ""), ErrObjectOwned)
	assert.ErrorIs(t, other.RemoveObject(obj), ErrObjectNotFound)
	assert.ErrorIs(t, s.AddObject(newTestObject("x"), "missing"), ErrLayerNotFound)

	l, ok := s.ObjectLayer(obj)
	require.True(t, ok)
	assert.True(t, l.IsDefault())

	require.NoError(t, s.RemoveObject(obj))
	assert.Zero(t, obj.SceneID())
	assert.ErrorIs(t, s.RemoveObject(obj), ErrObjectNotFound)
	require.NoError(t, other.AddObject(obj, ""))
}

func TestRemoveLayerReleasesObjects(t *testing.T) {
	s := newTestScene(t, 1)
	_, err := s.AddLayer("fx")
	require.NoError(t, err)
	obj := newTestObject("spark")
	require.NoError(t, s.AddObject(obj, "fx"))

	require.NoError(t, s.RemoveLayer("fx"))
	assert.Zero(t, obj.SceneID())
	require.NoError(t, s.AddObject(obj, ""))
}

func TestClear(t *testing.T) {
	s := newTestScene(t, 1)
	_, err := s.AddLayer("fx")
	require.NoError(t, err)
	a, b := newTestObject("a"), newTestObject("b")
	require.NoError(t, s.AddObject(a, ""))
	require.NoError(t, s.AddObject(b, "fx"))
	key, err := AddTypedResource(s, func() *dummyResource { return &dummyResource{} }, resource.EmptyKey)
	require.NoError(t, err)

	s.Clear(false)
	require.Len(t, s.Layers(), 1)
	assert.True(t, s.Layers()[0].Empty())
	assert.Zero(t, a.SceneID())
	assert.Zero(t, b.SceneID())
	ok, _ := s.ContainsResource(key)
	assert.True(t, ok)

	s.Clear(true)
	ok, _ = s.ContainsResource(key)
	assert.False(t, ok, "dictionaries are recreated empty")
}

func TestFrameClockWraps(t *testing.T) {
	s := newTestScene(t, 1, WithMaxFrameClock(100))
	for range 7 {
		require.NoError(t, s.Update(&frame.UpdateState{DeltaTime: 0.016}))
	}
	assert.Equal(t, uint64(112%100), s.FrameClock())
}

func TestUpdateStepOrder(t *testing.T) {
	s := newTestScene(t, 1)
	var log []string

	comp := &testComponent{name: "c", log: &log}
	require.NoError(t, s.AttachComponent(comp, nil))
	require.NoError(t, s.Update(tick()))
	log = nil

	res := &orderedResource{log: &log}
	_, err := s.AddResource(func() resource.Resource { return res }, resource.EmptyKey)
	require.NoError(t, err)
	require.NoError(t, res.Load(nil))

	obj := newTestObject("o")
	obj.onUpdate = func() { log = append(log, "object") }
	require.NoError(t, s.AddObject(obj, ""))
	s.PerformBeforeUpdateAsync(func() error {
		log = append(log, "action")
		return nil
	})
	s.WaitUntilAsync(t.Context(), func() bool {
		log = append(log, "poll")
		return true
	})

	require.NoError(t, s.Update(tick()))
	assert.Equal(t, []string{"c:update", "action", "resource", "object", "poll"}, log)
}

type orderedResource struct {
	dummyResource
	log *[]string
}

func (r *orderedResource) Update(*frame.UpdateState) { *r.log = append(*r.log, "resource") }

func TestObjectUpdateErrorAbortsUpdate(t *testing.T) {
	s := newTestScene(t, 1)
	boom := errors.New("boom")
	obj := newTestObject("o")
	obj.updateErr = boom
	require.NoError(t, s.AddObject(obj, ""))

	err := s.Update(tick())
	assert.ErrorIs(t, err, boom)

	obj.SetEnabled(false)
	assert.NoError(t, s.Update(tick()), "disabled objects are skipped")
}

func TestManyScenesSharedRegistry(t *testing.T) {
	r := newRegistry(t, 2)
	var scenes []Scene
	for i := range 3 {
		scenes = append(scenes, NewScene(fmt.Sprintf("s%d", i), r))
	}
	for _, s := range scenes {
		_, err := AddTypedResource(s, func() *dummyResource { return &dummyResource{} }, resource.Named("shared"))
		require.NoError(t, err, "keys are scoped per scene")
	}
}
