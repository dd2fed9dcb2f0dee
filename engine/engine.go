// Package engine drives scenes: a tick goroutine runs application logic at a fixed rate while
// the render goroutine runs the frame driver, updating every scene and rendering every
// registered view on every loaded device.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/frame"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
	"golang.org/x/sync/errgroup"
)

// InputSource supplies input frames to the driver. window.Window implements it.
type InputSource interface {
	// PollInput returns the events received since the previous call.
	PollInput() common.InputFrame
}

// Poller is implemented by devices that need their queue polled once per frame.
type Poller interface {
	Poll(wait bool)
}

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	mu *sync.RWMutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	registry device.Registry
	window   window.Window
	inputs   []InputSource
	targets  map[int]frame.DrawTarget

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	scenes map[int]scene.Scene

	renderWorkers int
	renderPool    worker.DynamicWorkerPool
	poolStopped   bool
	frameMu       *sync.Mutex
	lastState     *frame.UpdateState
	frameErr      error

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the tick loop, the render driver, and window management.
type Engine interface {
	// Registry returns the device registry scenes render to.
	Registry() device.Registry

	// Window returns the hosting window, or nil when running headless.
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Profiler returns the engine profiler.
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for application logic.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, on the tick goroutine.
	// Use this for application logic that feeds scenes through their async queues.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called on the render goroutine after each frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddInputSource adds a source polled at the start of every frame.
	//
	// Parameters:
	//   - src: the input source
	AddInputSource(src InputSource)

	// SetDrawTarget sets where draw commands for a device go. Devices without a target
	// discard their commands.
	//
	// Parameters:
	//   - deviceIndex: the device index
	//   - target: the draw target, or nil to discard
	SetDrawTarget(deviceIndex int, target frame.DrawTarget)

	// AddScene registers a scene at the given z-index key.
	// Scenes update and render in ascending key order.
	//
	// Parameters:
	//   - key: the z-index determining order (lower first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	Scenes() map[int]scene.Scene

	// Step runs one frame synchronously on the calling goroutine: poll input, update every
	// scene, then run the beside-render updates concurrently with rendering every
	// registered view on every device. Must not be called while Run is active.
	//
	// Parameters:
	//   - dt: the frame's delta time
	//
	// Returns:
	//   - error: the joined scene update and render errors
	Step(dt time.Duration) error

	// Run starts the tick and render goroutines and blocks until the window closes or Quit
	// is called.
	//
	// Returns:
	//   - error: the error of the last failed frame, if any
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - registry: the loaded device registry shared with the engine's scenes (must not be nil)
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(registry device.Registry, options ...EngineBuilderOption) Engine {
	if registry == nil {
		panic("engine: NewEngine requires a non-nil device Registry")
	}
	e := &engine{
		mu:              &sync.RWMutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		registry:        registry,
		targets:         make(map[int]frame.DrawTarget),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		renderWorkers:   4,
		frameMu:         &sync.Mutex{},
	}

	for _, opt := range options {
		opt(e)
	}
	e.renderPool = worker.NewDynamicWorkerPool(e.renderWorkers, 256, time.Second)
	if e.window != nil {
		e.inputs = append(e.inputs, e.window)
	}
	return e
}

func (e *engine) logger() *slog.Logger { return logging.Logger() }

func (e *engine) Registry() device.Registry { return e.registry }

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler { return e.profiler }

func (e *engine) Run() error {
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.stopRenderPool()

	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	return e.frameErr
}

// stopRenderPool stops the render workers. Frames stepped afterwards render devices inline.
func (e *engine) stopRenderPool() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.poolStopped {
		e.renderPool.Stop()
		e.poolStopped = true
	}
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handle launches the tick, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	e.mu.RLock()
	ticker := time.NewTicker(e.engineTickRate)
	e.mu.RUnlock()
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.mu.RLock()
			cb := e.tickCallback
			e.mu.RUnlock()
			if cb != nil {
				cb(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.mu.Lock()
			e.engineTickRate = newRate
			e.mu.Unlock()
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Each iteration is one driver frame. Frame errors are logged and the loop continues;
// panics are recovered, logged, and signal quit.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger().Warn("render goroutine recovered from panic", "panic", r)
			e.frameMu.Lock()
			e.frameErr = fmt.Errorf("engine: render goroutine panicked: %v", r)
			e.frameMu.Unlock()
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := now.Sub(lastRender)
			lastRender = now

			if err := e.Step(dt); err != nil {
				e.logger().Error("frame failed", "err", err)
			}

			e.mu.RLock()
			cb, profiling, limit := e.renderCallback, e.profilingEnabled, e.renderFrameLimit
			e.mu.RUnlock()
			if cb != nil {
				cb(float32(dt.Seconds()))
			}
			if profiling && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if limit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := limit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) Step(dt time.Duration) error {
	e.frameMu.Lock()
	state := frame.NewUpdateState(e.lastState, dt, e.pollInputs()...)
	e.lastState = state
	e.frameMu.Unlock()

	scenes := e.orderedScenes()
	var updateErrs []error
	for _, s := range scenes {
		if err := s.Update(state); err != nil {
			updateErrs = append(updateErrs, fmt.Errorf("engine: update scene %q: %w", s.Name(), err))
		}
	}

	var g errgroup.Group
	g.Go(func() error {
		var errs []error
		for _, s := range scenes {
			if err := s.UpdateBesideRender(state); err != nil {
				errs = append(errs, fmt.Errorf("engine: beside-render scene %q: %w", s.Name(), err))
			}
		}
		return errors.Join(errs...)
	})
	g.Go(func() error {
		return e.renderDevices(scenes)
	})

	err := errors.Join(append(updateErrs, g.Wait())...)
	e.frameMu.Lock()
	e.frameErr = err
	e.frameMu.Unlock()
	return err
}

// renderDevices renders every scene's views on every loaded device. Devices render in
// parallel on the render pool; a WaitGroup is the per-frame barrier.
func (e *engine) renderDevices(scenes []scene.Scene) error {
	devices := e.registry.Devices()
	errs := make([]error, len(devices))

	e.mu.RLock()
	stopped := e.poolStopped
	e.mu.RUnlock()
	if stopped {
		for i, d := range devices {
			errs[i] = renderDevice(d, scenes, e.drawTarget(d.Index()))
		}
		return errors.Join(errs...)
	}

	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		target := e.drawTarget(d.Index())
		e.renderPool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				errs[i] = renderDevice(d, scenes, target)
				return nil, errs[i]
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

// renderDevice draws the views of d in scene order, then polls the device queue.
func renderDevice(d device.Device, scenes []scene.Scene, target frame.DrawTarget) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: render on %s panicked: %v", d.Name(), r)
		}
	}()

	var errs []error
	for _, s := range scenes {
		for _, v := range s.Views() {
			if v.Device() != d {
				continue
			}
			rs := frame.NewRenderState(v, target)
			if err := s.Render(rs); err != nil {
				errs = append(errs, fmt.Errorf("engine: render scene %q view %d: %w", s.Name(), v.ViewIndex(), err))
				continue
			}
			if err := s.Render2DOverlay(rs); err != nil {
				errs = append(errs, fmt.Errorf("engine: overlay scene %q view %d: %w", s.Name(), v.ViewIndex(), err))
			}
		}
	}
	if p, ok := d.(Poller); ok {
		p.Poll(false)
	}
	return errors.Join(errs...)
}

func (e *engine) pollInputs() []common.InputFrame {
	e.mu.RLock()
	sources := slices.Clone(e.inputs)
	e.mu.RUnlock()

	var frames []common.InputFrame
	for _, src := range sources {
		if f := src.PollInput(); len(f.Events) > 0 {
			frames = append(frames, f)
		}
	}
	return frames
}

// orderedScenes returns the scenes in ascending z-index order.
func (e *engine) orderedScenes() []scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]scene.Scene, len(keys))
	for i, k := range keys {
		out[i] = e.scenes[k]
	}
	return out
}

func (e *engine) drawTarget(deviceIndex int) frame.DrawTarget {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if t, ok := e.targets[deviceIndex]; ok {
		return t
	}
	return frame.Discard
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	if !running {
		e.engineTickRate = newRate
	}
	e.mu.Unlock()
	if !running {
		return
	}

	// Non-blocking send - if the channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderFrameLimit = frameLimit(fps)
}

func frameLimit(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddInputSource(src InputSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.inputs = append(e.inputs, src)
}

func (e *engine) SetDrawTarget(deviceIndex int, target frame.DrawTarget) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if target == nil {
		delete(e.targets, deviceIndex)
		return
	}
	e.targets[deviceIndex] = target
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
