package resource

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResource struct {
	loaded   bool
	loads    int
	unloads  int
	updates  int
	failLoad error
}

func (f *fakeResource) Load(device.Device) error {
	f.loads++
	if f.failLoad != nil {
		return f.failLoad
	}
	f.loaded = true
	return nil
}
func (f *fakeResource) Unload()                   { f.unloads++; f.loaded = false }
func (f *fakeResource) IsLoaded() bool            { return f.loaded }
func (f *fakeResource) Update(*frame.UpdateState) { f.updates++ }

type otherResource struct{ fakeResource }

func TestKeys(t *testing.T) {
	assert.True(t, EmptyKey.IsEmpty())
	assert.True(t, Named("").IsEmpty())
	assert.Equal(t, "<empty>", EmptyKey.String())

	a, b := NewKey(), NewKey()
	assert.False(t, a.IsEmpty())
	assert.False(t, a.IsNamed())
	assert.NotEqual(t, a, b)

	n := Named("brick")
	assert.True(t, n.IsNamed())
	assert.Equal(t, "brick", n.String())
	assert.Equal(t, n, Named("brick"))
}

func TestDictionaryAddGet(t *testing.T) {
	d := NewDictionary(device.NewHeadless(0))
	key := NewKey()
	r := &fakeResource{}

	require.NoError(t, d.Add(key, r))
	assert.ErrorIs(t, d.Add(key, &fakeResource{}), ErrExists)
	assert.True(t, d.Contains(key))
	assert.Equal(t, 1, d.Len())

	got, err := Get[*fakeResource](d, key)
	require.NoError(t, err)
	assert.Same(t, r, got)

	_, err = Get[*otherResource](d, key)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	_, err = d.Get(Named("missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDictionaryLifecycle(t *testing.T) {
	d := NewDictionary(device.NewHeadless(0))
	ok := &fakeResource{}
	bad := &fakeResource{failLoad: errors.New("out of memory")}
	require.NoError(t, d.Add(Named("ok"), ok))
	require.NoError(t, d.Add(Named("bad"), bad))

	assert.Equal(t, 1, d.LoadPending())
	assert.True(t, ok.IsLoaded())
	assert.False(t, bad.IsLoaded())

	assert.Equal(t, 0, d.LoadPending(), "failed loads are retried but the loaded resource is not reloaded")
	assert.Equal(t, 1, ok.loads)
	assert.Equal(t, 2, bad.loads)

	d.UpdateLoaded(&frame.UpdateState{})
	assert.Equal(t, 1, ok.updates)
	assert.Equal(t, 0, bad.updates)

	assert.Equal(t, 1, d.UnloadAll())
	assert.False(t, ok.IsLoaded())
	assert.Equal(t, 2, d.Len(), "unload keeps entries")

	d.LoadPending()
	assert.True(t, d.Remove(Named("ok")))
	assert.Equal(t, 2, ok.unloads)
	assert.False(t, d.Remove(Named("ok")))
	assert.Equal(t, []Key{Named("bad")}, d.Keys())

	d.Clear()
	assert.Equal(t, 0, d.Len())
}
