package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/device"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/view"
)

// RenderParameters holds the per-device state shared by every draw of a scene on one
// device: the camera uniform buffer and the frame clock of the last render. A scene
// creates one per device on first render.
type RenderParameters struct {
	mu *sync.Mutex

	device device.Device
	camera *resource.UniformBuffer

	frameClock uint64
	lastView   int
	updates    uint64
}

func newRenderParameters(sceneName string, d device.Device) (*RenderParameters, error) {
	ub := resource.NewUniformBuffer(fmt.Sprintf("%s camera (%s)", sceneName, d.Name()), camera.GPUCameraUniformSize)
	if err := ub.Load(d); err != nil {
		return nil, err
	}
	return &RenderParameters{mu: &sync.Mutex{}, device: d, camera: ub, lastView: view.Unregistered}, nil
}

// update uploads the camera uniform of v.
func (p *RenderParameters) update(v *view.Info, frameClock uint64) error {
	u := v.Camera().Uniform()
	if err := p.camera.Write(0, u.Marshal()); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frameClock = frameClock
	p.lastView = v.ViewIndex()
	p.updates++
	return nil
}

func (p *RenderParameters) release() {
	p.camera.Unload()
}

// Device returns the device the parameters belong to.
func (p *RenderParameters) Device() device.Device { return p.device }

// CameraBuffer returns the camera uniform buffer bound by draw code.
func (p *RenderParameters) CameraBuffer() *resource.UniformBuffer { return p.camera }

// FrameClock returns the scene frame clock, in milliseconds, at the last render.
func (p *RenderParameters) FrameClock() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameClock
}

// LastView returns the index of the last view rendered with these parameters.
func (p *RenderParameters) LastView() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastView
}

// Updates returns how many times the parameters were refreshed.
func (p *RenderParameters) Updates() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updates
}
