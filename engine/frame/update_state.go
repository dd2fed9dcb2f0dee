// Package frame holds the per-frame state objects passed through the scene's update and
// render entry points, plus the draw targets render passes emit commands into.
package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// UpdateState is the per-frame context handed to Scene.Update and Scene.UpdateBesideRender
// and passed through unmodified to components, resources and objects.
type UpdateState struct {
	// DeltaTime is the elapsed time since the previous frame in seconds.
	DeltaTime float32
	// Elapsed is the total running time of the driver.
	Elapsed time.Duration
	// FrameID is the driver's frame counter, starting at 1.
	FrameID uint64
	// Inputs are the input frames polled from view hosts since the previous update.
	Inputs []common.InputFrame
}

// NewUpdateState builds the state for the next frame from the previous one.
//
// Parameters:
//   - prev: the previous frame state, or nil for the first frame
//   - dt: elapsed time since the previous frame
//   - inputs: input frames polled since the previous frame
//
// Returns:
//   - *UpdateState: the new frame state
func NewUpdateState(prev *UpdateState, dt time.Duration, inputs ...common.InputFrame) *UpdateState {
	s := &UpdateState{
		DeltaTime: float32(dt.Seconds()),
		Elapsed:   dt,
		FrameID:   1,
		Inputs:    inputs,
	}
	if prev != nil {
		s.Elapsed += prev.Elapsed
		s.FrameID = prev.FrameID + 1
	}
	return s
}

// InputFor returns the input frame belonging to the given view index.
//
// Parameters:
//   - viewIndex: the view index to look up
//
// Returns:
//   - common.InputFrame: the merged events for that view
//   - bool: false if no events were polled for that view
func (s *UpdateState) InputFor(viewIndex int) (common.InputFrame, bool) {
	out := common.InputFrame{ViewIndex: viewIndex}
	found := false
	for _, in := range s.Inputs {
		if in.ViewIndex == viewIndex {
			out.Events = append(out.Events, in.Events...)
			found = true
		}
	}
	return out, found
}
