package resource

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// UniformBuffer is a fixed-size uniform buffer resource. On WebGPU devices it owns a
// wgpu.Buffer and writes go straight to the device queue; on other devices the bytes are
// only staged, which lets headless scenes exercise the same code path.
type UniformBuffer struct {
	mu *sync.Mutex

	label  string
	size   uint64
	staged []byte

	buffer *wgpu.Buffer
	queue  *wgpu.Queue
	loaded bool
	writes uint64
}

var _ Resource = &UniformBuffer{}

// NewUniformBuffer creates an unloaded uniform buffer of size bytes.
//
// Parameters:
//   - label: debug label for the GPU buffer
//   - size: the buffer size in bytes
//
// Returns:
//   - *UniformBuffer: the new buffer
func NewUniformBuffer(label string, size uint64) *UniformBuffer {
	return &UniformBuffer{
		mu:     &sync.Mutex{},
		label:  label,
		size:   size,
		staged: make([]byte, size),
	}
}

func (u *UniformBuffer) Load(d device.Device) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.loaded {
		return nil
	}

	if wd, ok := d.(device.WGPUDevice); ok && wd.WGPU() != nil {
		buf, err := wd.WGPU().CreateBuffer(&wgpu.BufferDescriptor{
			Label:            u.label,
			Size:             u.size,
			Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("resource: create uniform buffer %q: %w", u.label, err)
		}
		u.buffer = buf
		u.queue = wd.Queue()
		u.queue.WriteBuffer(u.buffer, 0, u.staged)
	}
	u.loaded = true
	return nil
}

func (u *UniformBuffer) Unload() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.buffer != nil {
		u.buffer.Release()
		u.buffer = nil
	}
	u.queue = nil
	u.loaded = false
}

func (u *UniformBuffer) IsLoaded() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.loaded
}

// Size returns the buffer size in bytes.
func (u *UniformBuffer) Size() uint64 { return u.size }

// Write copies data into the buffer at offset. The staged copy is always updated; the GPU
// buffer is written too when loaded on a WebGPU device.
//
// Parameters:
//   - offset: byte offset into the buffer
//   - data: the bytes to write
//
// Returns:
//   - error: error if the write would overflow the buffer
func (u *UniformBuffer) Write(offset uint64, data []byte) error {
	if offset+uint64(len(data)) > u.size {
		return fmt.Errorf("resource: write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, u.label, u.size)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	copy(u.staged[offset:], data)
	if u.buffer != nil {
		u.queue.WriteBuffer(u.buffer, offset, data)
	}
	u.writes++
	return nil
}

// Bytes returns a copy of the staged contents.
func (u *UniformBuffer) Bytes() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]byte, len(u.staged))
	copy(out, u.staged)
	return out
}

// Writes returns the number of successful Write calls.
func (u *UniformBuffer) Writes() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.writes
}

// Buffer returns the GPU buffer, or nil when not loaded on a WebGPU device.
func (u *UniformBuffer) Buffer() *wgpu.Buffer {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.buffer
}
