package device

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLoader struct{ err error }

func (f failingLoader) Load(int) ([]Device, error) { return nil, f.err }

type misindexedLoader struct{}

func (misindexedLoader) Load(firstIndex int) ([]Device, error) {
	return []Device{NewHeadless(firstIndex + 5)}, nil
}

func TestRegistryLoadHeadless(t *testing.T) {
	r := NewRegistry(WithHeadlessDevices(2), WithHeadlessDevices(1))
	assert.False(t, r.Loaded())
	assert.Equal(t, 0, r.Count())

	require.NoError(t, r.Load())
	assert.True(t, r.Loaded())
	require.Equal(t, 3, r.Count())

	for i, d := range r.Devices() {
		assert.Equal(t, i, d.Index())
		got, ok := r.Device(i)
		require.True(t, ok)
		assert.Same(t, d, got)
		assert.True(t, r.Contains(d))
	}

	_, ok := r.Device(3)
	assert.False(t, ok)
	assert.False(t, r.Contains(NewHeadless(0)), "a foreign device with a valid index is not contained")
	assert.False(t, r.Contains(nil))
}

func TestRegistryLoadIsIdempotent(t *testing.T) {
	r := NewRegistry(WithHeadlessDevices(1))
	require.NoError(t, r.Load())
	first := r.Devices()[0]
	require.NoError(t, r.Load())
	assert.Same(t, first, r.Devices()[0])
}

func TestRegistryLoadFailureReleasesLoadedDevices(t *testing.T) {
	boom := errors.New("no adapter")
	r := NewRegistry(WithHeadlessDevices(2), WithLoader(failingLoader{err: boom}))

	err := r.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, r.Loaded())
	assert.Equal(t, 0, r.Count())
}

func TestRegistryRejectsMisindexedDevices(t *testing.T) {
	r := NewRegistry(WithLoader(misindexedLoader{}))
	err := r.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 0")
}

func TestRegistryReleaseInReverseOrder(t *testing.T) {
	r := NewRegistry(WithHeadlessDevices(2))
	require.NoError(t, r.Load())
	devices := r.Devices()

	r.Release()
	assert.False(t, r.Loaded())
	assert.Equal(t, 0, r.Count())
	for _, d := range devices {
		assert.True(t, d.(*Headless).Released())
	}
}

func TestProviderLoaderRejectsNilProvider(t *testing.T) {
	_, err := ProviderLoader(nil).Load(0)
	require.Error(t, err)

	r := NewRegistry(WithProviders([]gpucontext.DeviceProvider{nil}...))
	assert.Error(t, r.Load())
}
