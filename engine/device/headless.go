package device

import (
	"fmt"
	"sync/atomic"
)

// Headless is a Device without GPU handles.
type Headless struct {
	index    int
	name     string
	released atomic.Bool
}

var _ Device = &Headless{}

// NewHeadless creates a headless device with the given index.
//
// Parameters:
//   - index: the device index inside its registry
//
// Returns:
//   - *Headless: the new device
func NewHeadless(index int) *Headless {
	return &Headless{index: index, name: fmt.Sprintf("headless-%d", index)}
}

func (h *Headless) Index() int     { return h.index }
func (h *Headless) Name() string   { return h.name }
func (h *Headless) Release()       { h.released.Store(true) }
func (h *Headless) Released() bool { return h.released.Load() }

type headlessLoader int

// HeadlessLoader returns a Loader producing n headless devices.
func HeadlessLoader(n int) Loader {
	return headlessLoader(n)
}

func (n headlessLoader) Load(firstIndex int) ([]Device, error) {
	out := make([]Device, 0, int(n))
	for i := range int(n) {
		out = append(out, NewHeadless(firstIndex+i))
	}
	return out, nil
}
