package components

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/messaging"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// FrameStats is published on the scene messenger every reporting interval.
type FrameStats struct {
	SceneID uint64
	Frames  uint64
	// FPS is the average rate over the last interval.
	FPS float64
}

// counterState is the per-attachment bookkeeping of a FrameCounter.
type counterState struct {
	scene   scene.Scene
	window  time.Duration
	inFrame uint64
}

// FrameCounter is a global component counting the updates of the scene it is attached to.
// With a reporting interval it publishes FrameStats on the scene's messenger.
type FrameCounter struct {
	mu *sync.Mutex

	interval time.Duration
	frames   uint64
	fps      float64
}

var _ scene.Component = &FrameCounter{}

// NewFrameCounter creates a frame counter.
//
// Parameters:
//   - interval: how often to publish FrameStats, or 0 to never publish
//
// Returns:
//   - *FrameCounter: the newly created component
func NewFrameCounter(interval time.Duration) *FrameCounter {
	return &FrameCounter{mu: &sync.Mutex{}, interval: interval}
}

func (c *FrameCounter) IsViewSpecific() bool   { return false }
func (c *FrameCounter) ComponentGroup() string { return "" }

func (c *FrameCounter) Attach(m *scene.Manipulator, _ *view.Info) (any, error) {
	s, err := m.Scene()
	if err != nil {
		return nil, err
	}
	return &counterState{scene: s}, nil
}

func (c *FrameCounter) Detach(*scene.Manipulator, *view.Info, any) error { return nil }

func (c *FrameCounter) Update(state *frame.UpdateState, _ *view.Info, ctx any) error {
	st := ctx.(*counterState)

	c.mu.Lock()
	c.frames++
	frames := c.frames
	c.mu.Unlock()

	if c.interval <= 0 {
		return nil
	}
	st.inFrame++
	st.window += time.Duration(float64(state.DeltaTime) * float64(time.Second))
	if st.window < c.interval {
		return nil
	}

	fps := float64(st.inFrame) / st.window.Seconds()
	c.mu.Lock()
	c.fps = fps
	c.mu.Unlock()
	st.window, st.inFrame = 0, 0

	if m := st.scene.Messenger(); m != nil {
		messaging.Publish(m, FrameStats{SceneID: st.scene.ID(), Frames: frames, FPS: fps})
	}
	return nil
}

// Frames returns the number of updates counted so far.
func (c *FrameCounter) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// FPS returns the rate measured over the last completed interval.
func (c *FrameCounter) FPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}
