package window

import "github.com/Carmen-Shannon/oxy-scene/engine/view"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title.
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the requested framebuffer size. It is clamped to the size limits once all
// options are applied.
//
// Parameters:
//   - width: requested width in pixels
//   - height: requested height in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width.Store(int32(width))
		w.height.Store(int32(height))
	}
}

// WithSizeLimits bounds the window size. A limit of zero leaves that bound open.
//
// Parameters:
//   - minWidth, minHeight: the smallest allowed size in pixels
//   - maxWidth, maxHeight: the largest allowed size in pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}

// WithView binds v as the hosted view when the window is created, so its viewport matches
// the initial framebuffer and polled input frames carry its index.
//
// Parameters:
//   - v: the view to host
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithView(v *view.Info) WindowBuilderOption {
	return func(w *engineWindow) {
		w.initialView = v
	}
}

// WithCloseKey sets the key that closes the window. The key press is consumed and never
// reaches the input buffer. Zero disables closing from the keyboard.
//
// Parameters:
//   - keyCode: a virtual key code from common, default common.KeyEsc
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithCloseKey(keyCode uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.closeKey = keyCode
	}
}
