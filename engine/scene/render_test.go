package scene

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderNames(rec *frame.Recorder) []string {
	var names []string
	for _, cmd := range rec.Commands() {
		names = append(names, cmd.Resource)
	}
	return names
}

func TestRenderFollowsLayerOrder(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))

	_, err := s.AddLayer("background")
	require.NoError(t, err)
	_, err = s.AddLayer("hud")
	require.NoError(t, err)
	_, err = s.AddLayer("empty")
	require.NoError(t, err)
	require.NoError(t, s.SetLayerOrderID("background", -10))
	require.NoError(t, s.SetLayerOrderID("hud", 10))

	require.NoError(t, s.AddObject(newTestObject("hud"), "hud"))
	require.NoError(t, s.AddObject(newTestObject("world"), ""))
	require.NoError(t, s.AddObject(newTestObject("sky"), "background"))

	rec := frame.NewRecorder()
	rs := frame.NewRenderState(v, rec)
	require.NoError(t, s.Render(rs))
	assert.Equal(t, []string{"sky", "world", "hud"}, renderNames(rec))
	assert.Equal(t, 0, rs.Depth(), "the render context is popped")

	var layers []string
	for _, cmd := range rec.Commands() {
		layers = append(layers, cmd.Layer)
		assert.Equal(t, v.ViewIndex(), cmd.View)
		assert.False(t, cmd.Overlay)
	}
	assert.Equal(t, []string{"background", DefaultLayerName, "hud"}, layers)
}

func TestRender2DOverlay(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	obj := newTestObject("label")
	require.NoError(t, s.AddObject(obj, ""))

	rec := frame.NewRecorder()
	rs := frame.NewRenderState(v, rec)
	require.NoError(t, s.Render2DOverlay(rs))
	require.Equal(t, 1, rec.Len())
	assert.True(t, rec.Commands()[0].Overlay)
	assert.False(t, rs.Overlay())
	assert.Equal(t, 1, obj.overlays)
}

func TestRenderErrors(t *testing.T) {
	s := newTestScene(t, 2)
	v := newTestView(t, s, 0)

	err := s.Render(frame.NewRenderState(v, nil))
	assert.ErrorIs(t, err, ErrViewNotRegistered)

	other := newTestScene(t, 1)
	foreign := newTestView(t, other, 0)
	require.NoError(t, other.RegisterView(foreign))
	assert.ErrorIs(t, s.Render(frame.NewRenderState(foreign, nil)), ErrNoResourceDictionary)
}

func TestRenderLoadsPendingResourcesAndParameters(t *testing.T) {
	s := newTestScene(t, 2)
	res := map[int]*dummyResource{}
	i := 0
	_, err := AddTypedResource(s, func() *dummyResource {
		r := &dummyResource{}
		res[i] = r
		i++
		return r
	}, resource.EmptyKey)
	require.NoError(t, err)

	v := newTestView(t, s, 1)
	require.NoError(t, s.RegisterView(v))
	require.NoError(t, s.Update(tick()))
	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))

	assert.False(t, res[0].IsLoaded(), "only the rendering device loads")
	assert.True(t, res[1].IsLoaded())

	assert.Nil(t, s.RenderParameters(0))
	p := s.RenderParameters(1)
	require.NotNil(t, p)
	assert.Same(t, v.Device(), p.Device())
	assert.Equal(t, s.FrameClock(), p.FrameClock())
	assert.Equal(t, v.ViewIndex(), p.LastView())
	assert.Equal(t, uint64(1), p.Updates())
	uniform := v.Camera().Uniform()
	assert.Equal(t, uniform.Marshal(), p.CameraBuffer().Bytes())

	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))
	assert.Same(t, p, s.RenderParameters(1))
	assert.Equal(t, uint64(2), p.Updates())
}

func TestRenderContextExposesResources(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	key, err := AddTypedResource(s, func() *dummyResource { return &dummyResource{} }, resource.EmptyKey)
	require.NoError(t, err)

	capture := &contextCapture{}
	require.NoError(t, s.AddObject(capture, ""))
	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))

	require.NotNil(t, capture.ctx)
	assert.Equal(t, s.ID(), capture.ctx.Scene.ID())
	assert.True(t, capture.ctx.Resources.Contains(key))
	assert.NotNil(t, capture.ctx.Parameters)
	assert.True(t, capture.ctx.Layer.IsDefault())
}

type contextCapture struct {
	ObjectBase
	ctx *RenderContext
}

func (p *contextCapture) Render(rs *frame.RenderState) error {
	p.ctx, _ = rs.Context().(*RenderContext)
	return nil
}

func TestAutomaticUnload(t *testing.T) {
	s := newTestScene(t, 1)
	m := messaging.New("main")
	s.AttachMessenger(m)
	unloads := 0
	messaging.Subscribe(m, func(SceneUnloaded) { unloads++ })

	r := &dummyResource{}
	_, err := s.AddResource(func() resource.Resource { return r }, resource.EmptyKey)
	require.NoError(t, err)

	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))
	require.True(t, r.IsLoaded())

	require.NoError(t, s.DeregisterView(v))
	assert.True(t, r.IsLoaded(), "unload waits for the next update")
	require.NoError(t, s.Update(tick()))
	assert.False(t, r.IsLoaded())
	assert.Equal(t, 1, unloads)

	ok, err := s.ContainsResource(firstKey(t, s))
	require.NoError(t, err)
	assert.True(t, ok, "unloading keeps the entries")
}

func firstKey(t *testing.T, s Scene) resource.Key {
	t.Helper()
	dicts, err := s.Dictionaries()
	require.NoError(t, err)
	keys := dicts[0].Keys()
	require.NotEmpty(t, keys)
	return keys[0]
}

func TestAutomaticUnloadCancelledByRegister(t *testing.T) {
	s := newTestScene(t, 1)
	r := &dummyResource{}
	_, err := s.AddResource(func() resource.Resource { return r }, resource.EmptyKey)
	require.NoError(t, err)

	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))

	require.NoError(t, s.DeregisterView(v))
	require.NoError(t, s.RegisterView(v))
	require.NoError(t, s.Update(tick()))
	assert.True(t, r.IsLoaded())
}

func TestPinnedSceneKeepsResources(t *testing.T) {
	s := newTestScene(t, 1, WithPinned(true))
	r := &dummyResource{}
	_, err := s.AddResource(func() resource.Resource { return r }, resource.EmptyKey)
	require.NoError(t, err)

	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	require.NoError(t, s.Render(frame.NewRenderState(v, nil)))
	require.NoError(t, s.DeregisterView(v))
	require.NoError(t, s.Update(tick()))
	assert.True(t, r.IsLoaded())

	s.SetPinned(false)
	require.NoError(t, s.Update(tick()))
	assert.False(t, r.IsLoaded(), "unpinning without views schedules an unload")
}

func TestFrustumVisibility(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0, view.WithFilters(view.NewFrustumFilter()))
	require.NoError(t, s.RegisterView(v))

	near := newTestObject("near")
	near.SetLocalBounds(common.BoundingSphere{Radius: 1})
	far := newTestObject("far")
	far.SetLocalBounds(common.BoundingSphere{Radius: 1})
	far.SetPosition(0, 0, 500)
	free := newTestObject("free")
	for _, o := range []*testObject{near, far, free} {
		require.NoError(t, s.AddObject(o, ""))
	}

	require.NoError(t, s.Update(tick()))
	require.NoError(t, s.UpdateBesideRender(tick()))
	rec := frame.NewRecorder()
	require.NoError(t, s.Render(frame.NewRenderState(v, rec)))
	assert.ElementsMatch(t, []string{"near", "free"}, renderNames(rec))

	far.SetPosition(0, 0, 0)
	require.NoError(t, s.Update(tick()))
	require.NoError(t, s.UpdateBesideRender(tick()))
	rec.Reset()
	require.NoError(t, s.Render(frame.NewRenderState(v, rec)))
	assert.ElementsMatch(t, []string{"near", "far", "free"}, renderNames(rec))

	v.Camera().LookAt([3]float32{0, 0, -10}, [3]float32{0, 0, -20})
	require.NoError(t, s.UpdateBesideRender(tick()))
	rec.Reset()
	require.NoError(t, s.Render(frame.NewRenderState(v, rec)))
	assert.ElementsMatch(t, []string{"free"}, renderNames(rec), "camera movement refreshes visibility")
}

func TestTagFilterPerView(t *testing.T) {
	s := newTestScene(t, 1)
	tags := view.NewTagFilter("ui")
	uiView := newTestView(t, s, 0, view.WithFilters(tags))
	allView := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(uiView))
	require.NoError(t, s.RegisterView(allView))

	button := newTestObject("button")
	button.SetTag("ui")
	tree := newTestObject("tree")
	tree.SetTag("world")
	require.NoError(t, s.AddObject(button, ""))
	require.NoError(t, s.AddObject(tree, ""))
	require.NoError(t, s.UpdateBesideRender(tick()))

	layer := s.Layers()[0]
	visible, ok := layer.Visible(uiView.ViewIndex())
	require.True(t, ok)
	assert.Equal(t, []Object{button}, visible)
	visible, ok = layer.Visible(allView.ViewIndex())
	require.True(t, ok)
	assert.Len(t, visible, 2)

	tags.SetTags("world")
	require.NoError(t, s.UpdateBesideRender(tick()))
	visible, _ = layer.Visible(uiView.ViewIndex())
	assert.Equal(t, []Object{tree}, visible)
	assert.False(t, uiView.FiltersChanged())
}

func TestDisabledObjectsAreNotRendered(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	obj := newTestObject("hidden")
	obj.SetEnabled(false)
	require.NoError(t, s.AddObject(obj, ""))

	rec := frame.NewRecorder()
	require.NoError(t, s.Render(frame.NewRenderState(v, rec)))
	assert.Zero(t, rec.Len())
	require.NoError(t, s.UpdateBesideRender(tick()))
	assert.Zero(t, obj.beside)
}

func TestViewCameraSwapRefreshesVisibility(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0, view.WithFilters(view.NewFrustumFilter()))
	require.NoError(t, s.RegisterView(v))
	obj := newTestObject("o")
	obj.SetLocalBounds(common.BoundingSphere{Radius: 1})
	require.NoError(t, s.AddObject(obj, ""))
	require.NoError(t, s.UpdateBesideRender(tick()))

	visible, _ := s.Layers()[0].Visible(v.ViewIndex())
	require.Len(t, visible, 1)

	v.SetCamera(camera.NewCamera(camera.WithPosition(0, 0, -10), camera.WithTarget(0, 0, -20)))
	require.NoError(t, s.UpdateBesideRender(tick()))
	visible, _ = s.Layers()[0].Visible(v.ViewIndex())
	assert.Empty(t, visible)
}

func TestRenderDevicesConcurrently(t *testing.T) {
	s := newTestScene(t, 3)
	views := make([]*view.Info, 3)
	for i := range views {
		views[i] = newTestView(t, s, i)
		require.NoError(t, s.RegisterView(views[i]))
	}
	require.NoError(t, s.AddObject(newTestObject("o"), ""))

	// dictionaries dropped here are recreated by whichever render reaches them first
	s.Clear(true)
	require.NoError(t, s.AddObject(newTestObject("o"), ""))
	require.NoError(t, s.UpdateBesideRender(tick()))

	const frames = 20
	recs := make([]*frame.Recorder, len(views))
	errs := make([]error, len(views))
	var wg sync.WaitGroup
	for i, v := range views {
		recs[i] = frame.NewRecorder()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range frames {
				if err := s.Render(frame.NewRenderState(v, recs[i])); err != nil {
					errs[i] = err
					return
				}
			}
		}()
	}
	wg.Wait()

	for i := range views {
		require.NoError(t, errs[i])
		assert.Equal(t, frames, recs[i].Len())
		require.NotNil(t, s.RenderParameters(i))
	}
	dicts, err := s.Dictionaries()
	require.NoError(t, err)
	require.Len(t, dicts, 3)
	for i, d := range dicts {
		assert.Same(t, views[i].Device(), d.Device())
	}
}
