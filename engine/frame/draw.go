package frame

import "sync"

// DrawCommand is one recorded draw emitted by a scene object during a render pass.
type DrawCommand struct {
	// Device is the index of the device the command targets.
	Device int
	// View is the index of the view being rendered.
	View int
	// Overlay is true for commands emitted during the 2D overlay pass.
	Overlay bool
	// Layer is the name of the scene layer the object lives on.
	Layer string
	// Resource is the string form of the resource key the draw uses, if any.
	Resource string
	// Model is the object's model matrix (column-major).
	Model [16]float32
	// Object is the emitting object.
	Object any
}

// DrawTarget receives draw commands. Implementations backed by a GPU encode them into
// command buffers; Recorder keeps them for inspection.
type DrawTarget interface {
	// Submit records one draw command.
	//
	// Parameters:
	//   - cmd: the command to record
	Submit(cmd DrawCommand)
}

type discard struct{}

func (discard) Submit(DrawCommand) {}

// Discard is a DrawTarget that drops every command.
var Discard DrawTarget = discard{}

// Recorder is a DrawTarget that keeps every submitted command in order.
// Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	commands []DrawCommand
}

var _ DrawTarget = &Recorder{}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Submit(cmd DrawCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, cmd)
}

// Commands returns a copy of the recorded commands.
func (r *Recorder) Commands() []DrawCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DrawCommand, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// Reset drops all recorded commands.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = r.commands[:0]
}
