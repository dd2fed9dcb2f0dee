package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentRequestsApplyOnUpdate(t *testing.T) {
	s := newTestScene(t, 1)
	c := &testComponent{name: "g"}

	require.NoError(t, s.AttachComponent(c, nil))
	assert.Empty(t, s.Components(), "requests are deferred until Update")

	require.NoError(t, s.Update(tick()))
	require.Len(t, s.Components(), 1)
	assert.Equal(t, 1, c.attaches)
	assert.Equal(t, 0, c.updates, "a component attached this frame is updated from the next frame on")

	require.NoError(t, s.Update(tick()))
	assert.Equal(t, 1, c.updates)

	require.NoError(t, s.AttachComponent(c, nil))
	require.NoError(t, s.Update(tick()))
	assert.Equal(t, 1, c.attaches, "attaching an attached component is a no-op")

	require.NoError(t, s.DetachComponent(c, nil))
	require.NoError(t, s.Update(tick()))
	assert.Empty(t, s.Components())
	assert.Equal(t, 1, c.detaches)
}

func TestGlobalComponentIgnoresView(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))

	c := &testComponent{name: "g"}
	require.NoError(t, s.AttachComponent(c, v))
	require.NoError(t, s.Update(tick()))

	comps := s.Components()
	require.Len(t, comps, 1)
	assert.Nil(t, comps[0].View)

	s.DetachAllComponents(nil)
	require.NoError(t, s.Update(tick()))
	assert.Empty(t, s.Components())
}

func TestDoubleAttachInOneDrain(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	w := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(w))

	c := &testComponent{name: "grouped", viewSpecific: true, group: "motion"}
	require.NoError(t, s.AttachComponent(c, v))
	require.NoError(t, s.AttachComponent(c, v))
	require.NoError(t, s.Update(tick()))

	comps := s.Components()
	require.Len(t, comps, 1)
	assert.Same(t, v, comps[0].View)
	assert.Equal(t, 1, c.attaches)
	assert.Equal(t, 0, c.detaches, "the second request must not evict the first through its own group")

	// the same component on another view is a different pair
	require.NoError(t, s.AttachComponent(c, w))
	require.NoError(t, s.Update(tick()))
	assert.Len(t, s.Components(), 2)
	assert.Equal(t, 2, c.attaches)
}

func TestViewSpecificComponentRequiresView(t *testing.T) {
	s := newTestScene(t, 1)
	c := &testComponent{name: "v", viewSpecific: true}
	assert.ErrorIs(t, s.AttachComponent(c, nil), ErrViewRequired)
	assert.ErrorIs(t, s.DetachComponent(c, nil), ErrViewRequired)
}

func TestComponentGroupExclusivity(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))
	w := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(w))

	var log []string
	a := &testComponent{name: "a", viewSpecific: true, group: "motion", log: &log}
	b := &testComponent{name: "b", viewSpecific: true, group: "motion", log: &log}
	other := &testComponent{name: "o", viewSpecific: true, group: "motion", log: &log}

	require.NoError(t, s.AttachComponent(a, v))
	require.NoError(t, s.AttachComponent(other, w))
	require.NoError(t, s.Update(tick()))
	require.Len(t, s.Components(), 2)
	log = nil

	require.NoError(t, s.AttachComponent(b, v))
	require.NoError(t, s.Update(tick()))

	assert.Equal(t, []string{"a:update", "o:update", "b:attach", "a:detach"}, log)
	comps := s.Components()
	require.Len(t, comps, 2)
	for _, ci := range comps {
		if ci.View == v {
			assert.Same(t, b, ci.Component)
		} else {
			assert.Same(t, other, ci.Component, "groups are exclusive per view only")
		}
	}
}

func TestDeregisterViewDetachesItsComponents(t *testing.T) {
	s := newTestScene(t, 1)
	v := newTestView(t, s, 0)
	require.NoError(t, s.RegisterView(v))

	vc := &testComponent{name: "vc", viewSpecific: true}
	g := &testComponent{name: "g"}
	require.NoError(t, s.AttachComponent(vc, v))
	require.NoError(t, s.AttachComponent(g, nil))
	require.NoError(t, s.Update(tick()))
	require.Len(t, s.Components(), 2)

	require.NoError(t, s.DeregisterView(v))
	require.NoError(t, s.Update(tick()))

	comps := s.Components()
	require.Len(t, comps, 1)
	assert.Same(t, g, comps[0].Component)
	assert.Equal(t, 1, vc.detaches)
}

func TestComponentHookErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")

	t.Run("attach", func(t *testing.T) {
		s := newTestScene(t, 1)
		c := &testComponent{name: "c", attachErr: boom}
		next := &testComponent{name: "n"}
		require.NoError(t, s.AttachComponent(c, nil))
		require.NoError(t, s.AttachComponent(next, nil))

		assert.ErrorIs(t, s.Update(tick()), boom)
		assert.Empty(t, s.Components(), "a failed attach leaves nothing attached")
		assert.Equal(t, 0, next.attaches, "later requests stay queued")

		c.attachErr = nil
		require.NoError(t, s.DetachComponent(c, nil))
		require.NoError(t, s.Update(tick()))
		assert.Equal(t, 1, next.attaches)
	})

	t.Run("detach", func(t *testing.T) {
		s := newTestScene(t, 1)
		c := &testComponent{name: "c", detachErr: boom}
		require.NoError(t, s.AttachComponent(c, nil))
		require.NoError(t, s.Update(tick()))

		require.NoError(t, s.DetachComponent(c, nil))
		assert.ErrorIs(t, s.Update(tick()), boom)
		assert.Len(t, s.Components(), 1, "a failed detach leaves the component attached")
	})

	t.Run("update", func(t *testing.T) {
		s := newTestScene(t, 1)
		c := &testComponent{name: "c", updateErr: boom}
		require.NoError(t, s.AttachComponent(c, nil))
		require.NoError(t, s.Update(tick()))

		obj := newTestObject("o")
		require.NoError(t, s.AddObject(obj, ""))
		assert.ErrorIs(t, s.Update(tick()), boom)
		assert.Equal(t, 0, obj.updates)
	})
}

func TestComponentManipulatorExpires(t *testing.T) {
	s := newTestScene(t, 1)
	obj := newTestObject("spawned")
	c := &testComponent{name: "c", onAttach: func(m *Manipulator) {
		assert.True(t, m.Valid())
		assert.NoError(t, m.AddObject(obj, ""))
	}}
	require.NoError(t, s.AttachComponent(c, nil))
	require.NoError(t, s.Update(tick()))

	assert.Equal(t, s.ID(), obj.SceneID())
	require.NotNil(t, c.lastManipulator)
	assert.False(t, c.lastManipulator.Valid())
	assert.ErrorIs(t, c.lastManipulator.AddObject(newTestObject("late"), ""), ErrManipulatorExpired)
	_, err := c.lastManipulator.Scene()
	assert.ErrorIs(t, err, ErrManipulatorExpired)
}

func TestComponentRequestsFromHooksDrainSameUpdate(t *testing.T) {
	s := newTestScene(t, 1)
	second := &testComponent{name: "second"}
	first := &testComponent{name: "first", onAttach: func(m *Manipulator) {
		sc, err := m.Scene()
		require.NoError(t, err)
		require.NoError(t, sc.AttachComponent(second, nil))
	}}
	require.NoError(t, s.AttachComponent(first, nil))
	require.NoError(t, s.Update(tick()))
	assert.Len(t, s.Components(), 2)
}

func TestComponentMessagesPublished(t *testing.T) {
	s := newTestScene(t, 1)
	m := messaging.New("scene")
	s.AttachMessenger(m)

	var attached, detached int
	messaging.Subscribe(m, func(ComponentAttached) { attached++ })
	messaging.Subscribe(m, func(ComponentDetached) { detached++ })

	c := &testComponent{name: "c"}
	require.NoError(t, s.AttachComponent(c, nil))
	require.NoError(t, s.Update(tick()))
	require.NoError(t, s.DetachComponent(c, nil))
	require.NoError(t, s.Update(tick()))

	m.Pump()
	assert.Equal(t, 1, attached)
	assert.Equal(t, 1, detached)
}
