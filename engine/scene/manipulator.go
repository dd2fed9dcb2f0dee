package scene

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
)

// Manipulator is the scene capability handed to ManipulateSceneAsync callbacks and to
// component attach and detach hooks. It is valid only while that callback runs; afterwards
// every method returns ErrManipulatorExpired.
type Manipulator struct {
	scene *scene
	valid atomic.Bool
}

func newManipulator(s *scene) *Manipulator {
	m := &Manipulator{scene: s}
	m.valid.Store(true)
	return m
}

func (m *Manipulator) invalidate() { m.valid.Store(false) }

// Valid reports whether the manipulator may still be used.
func (m *Manipulator) Valid() bool { return m.valid.Load() }

// Scene returns the manipulated scene.
//
// Returns:
//   - Scene: the scene
//   - error: ErrManipulatorExpired outside the callback
func (m *Manipulator) Scene() (Scene, error) {
	if !m.Valid() {
		return nil, ErrManipulatorExpired
	}
	return m.scene, nil
}

// AddObject places obj on the named layer, or on the default layer when layerName is empty.
//
// Parameters:
//   - obj: the object to add
//   - layerName: the target layer name
//
// Returns:
//   - error: ErrManipulatorExpired outside the callback, otherwise the error of Scene.AddObject
func (m *Manipulator) AddObject(obj Object, layerName string) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.AddObject(obj, layerName)
}

// RemoveObject removes obj from the layer that owns it.
//
// Returns:
//   - error: ErrManipulatorExpired outside the callback, or ErrObjectNotFound
func (m *Manipulator) RemoveObject(obj Object) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.RemoveObject(obj)
}

// AddLayer creates a layer with OrderID 0, registered against every view of the scene.
//
// Parameters:
//   - name: the unique layer name
//
// Returns:
//   - *Layer: the new layer
//   - error: ErrManipulatorExpired outside the callback, ErrInvalidLayerName or ErrDuplicateLayer
func (m *Manipulator) AddLayer(name string) (*Layer, error) {
	if !m.Valid() {
		return nil, ErrManipulatorExpired
	}
	return m.scene.AddLayer(name)
}

// RemoveLayer removes the named layer and releases its objects.
func (m *Manipulator) RemoveLayer(name string) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.RemoveLayer(name)
}

// SetLayerOrderID moves the named layer to order and re-sorts the layers.
func (m *Manipulator) SetLayerOrderID(name string, order int) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.SetLayerOrderID(name, order)
}

// ClearLayer removes every object from the named layer.
func (m *Manipulator) ClearLayer(name string) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.ClearLayer(name)
}

// Layer looks up a layer by name.
//
// Returns:
//   - *Layer: the layer
//   - error: ErrManipulatorExpired outside the callback, or ErrLayerNotFound
func (m *Manipulator) Layer(name string) (*Layer, error) {
	if !m.Valid() {
		return nil, ErrManipulatorExpired
	}
	l, ok := m.scene.Layer(name)
	if !ok {
		return nil, ErrLayerNotFound
	}
	return l, nil
}

// AddResource adds a resource to every device dictionary of the scene. See Scene.AddResource.
//
// Parameters:
//   - factory: called once per device
//   - key: the resource key, or resource.EmptyKey for a generated one
//
// Returns:
//   - resource.Key: the key the resources were stored under
//   - error: ErrManipulatorExpired outside the callback, otherwise the error of Scene.AddResource
func (m *Manipulator) AddResource(factory func() resource.Resource, key resource.Key) (resource.Key, error) {
	if !m.Valid() {
		return resource.EmptyKey, ErrManipulatorExpired
	}
	return m.scene.AddResource(factory, key)
}

// RemoveResource unloads and removes key from every device dictionary.
func (m *Manipulator) RemoveResource(key resource.Key) error {
	if !m.Valid() {
		return ErrManipulatorExpired
	}
	return m.scene.RemoveResource(key)
}
