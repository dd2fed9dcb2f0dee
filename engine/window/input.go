package window

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// InputBuffer collects platform input events for one view host until the driver polls them,
// and forwards framebuffer resizes to the bound view. Safe for concurrent use.
type InputBuffer struct {
	mu *sync.Mutex

	view   *view.Info
	events []common.InputEvent
}

// NewInputBuffer creates an empty, unbound input buffer.
func NewInputBuffer() *InputBuffer {
	return &InputBuffer{mu: &sync.Mutex{}}
}

// Bind attaches the buffer to a view. Polled frames carry the view's index and resizes are
// applied to it. Passing nil unbinds.
//
// Parameters:
//   - v: the view the host presents, or nil
func (b *InputBuffer) Bind(v *view.Info) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.view = v
}

// View returns the bound view, or nil.
func (b *InputBuffer) View() *view.Info {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Push appends an event.
func (b *InputBuffer) Push(e common.InputEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

// Resize forwards a framebuffer size change to the bound view.
func (b *InputBuffer) Resize(width, height int) {
	if v := b.View(); v != nil {
		v.Resize(width, height)
	}
}

// Poll returns and clears the buffered events.
//
// Returns:
//   - common.InputFrame: the events, tagged with the bound view's index or -1 when unbound
func (b *InputBuffer) Poll() common.InputFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	f := common.InputFrame{ViewIndex: view.Unregistered, Events: b.events}
	if b.view != nil {
		f.ViewIndex = b.view.ViewIndex()
	}
	b.events = nil
	return f
}
