// Package window hosts a view in a GLFW window: it turns platform input into input frames for
// the scene driver, applies framebuffer resizes to the hosted view, and supplies the surface
// descriptor the wgpu device loader needs.
package window

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides platform windowing and input polling for one hosted view.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized, after the
	// hosted view has been resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// BindView makes v the hosted view. Its viewport is set to the current framebuffer size.
	//
	// Parameters:
	//   - v: the view, or nil to unbind
	BindView(v *view.Info)

	// View returns the hosted view, or nil.
	View() *view.Info

	// PollInput returns the input events received since the previous call.
	//
	// Returns:
	//   - common.InputFrame: the events tagged with the hosted view's index
	PollInput() common.InputFrame

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls the update callback each iteration.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int

	width  atomic.Int32
	height atomic.Int32

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	input       *InputBuffer
	initialView *view.Info
	closeKey    uint32

	onUpdate func()
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and spawns a new Window with the specified options.
// Applies default values first, then each option in order. Must be called from the
// goroutine that will run ProcessMessages.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: create platform window: %w", err)
	}
	return w, nil
}

func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:     "oxy-scene",
		maxWidth:  1600,
		maxHeight: 1200,
		minWidth:  600,
		minHeight: 200,
		input:     NewInputBuffer(),
		closeKey:  common.KeyEsc,
	}
	w.width.Store(1280)
	w.height.Store(720)
	for _, opt := range options {
		opt(w)
	}
	w.width.Store(int32(clampSize(w.Width(), w.minWidth, w.maxWidth)))
	w.height.Store(int32(clampSize(w.Height(), w.minHeight, w.maxHeight)))
	if w.initialView != nil {
		w.BindView(w.initialView)
	}
	return w
}

func clampSize(size, lo, hi int) int {
	if hi > 0 && size > hi {
		size = hi
	}
	if size < lo {
		size = lo
	}
	return size
}

// closes reports whether a key press should close the window instead of being buffered.
func (w *engineWindow) closes(keyCode uint32) bool {
	return w.closeKey != 0 && keyCode == w.closeKey
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) BindView(v *view.Info) {
	w.input.Bind(v)
	if v != nil {
		v.Resize(w.Width(), w.Height())
	}
}

func (w *engineWindow) View() *view.Info {
	return w.input.View()
}

func (w *engineWindow) PollInput() common.InputFrame {
	return w.input.Poll()
}

// resized records a framebuffer size change and propagates it.
func (w *engineWindow) resized(width, height int) {
	w.width.Store(int32(width))
	w.height.Store(int32(height))
	w.input.Resize(width, height)
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return int(w.width.Load())
}

func (w *engineWindow) Height() int {
	return int(w.height.Load())
}
