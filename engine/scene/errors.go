package scene

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
)

var (
	// ErrDuplicateLayer is returned by AddLayer when the name is taken.
	ErrDuplicateLayer = errors.New("scene: duplicate layer name")
	// ErrDefaultLayer is returned when removing the default layer.
	ErrDefaultLayer = errors.New("scene: the default layer cannot be removed")
	// ErrLayerNotFound is returned when no layer has the requested name.
	ErrLayerNotFound = errors.New("scene: layer not found")
	// ErrInvalidLayerName is returned by AddLayer for an empty name.
	ErrInvalidLayerName = errors.New("scene: layer name must not be empty")
	// ErrEmptyKey is returned by resource operations given the empty key.
	ErrEmptyKey = errors.New("scene: resource key must not be empty")
	// ErrResourceExists is returned by AddResource when the key is already used.
	ErrResourceExists = resource.ErrExists
	// ErrNoDevices is returned when the scene's device registry has no loaded devices.
	ErrNoDevices = errors.New("scene: device registry has no loaded devices")
	// ErrViewAlreadyRegistered is returned when registering a registered view.
	ErrViewAlreadyRegistered = errors.New("scene: view already registered")
	// ErrViewNotRegistered is returned when deregistering, or rendering, a view this scene does not hold.
	ErrViewNotRegistered = errors.New("scene: view not registered")
	// ErrDeviceNotLoaded is returned when a view's device has no resource dictionary in this scene.
	ErrDeviceNotLoaded = errors.New("scene: view device is not loaded in this scene")
	// ErrViewRequired is returned when a view-specific component is attached or detached without a view.
	ErrViewRequired = errors.New("scene: view-specific component requires a view")
	// ErrViewsRegistered is returned by DetachMessenger while views are still registered.
	ErrViewsRegistered = errors.New("scene: views are still registered")
	// ErrManipulatorExpired is returned by Manipulator methods used outside their callback.
	ErrManipulatorExpired = errors.New("scene: manipulator used outside its callback")
	// ErrObjectOwned is returned by AddObject for an object already placed on a layer.
	ErrObjectOwned = errors.New("scene: object already belongs to a layer")
	// ErrObjectNotFound is returned by RemoveObject for an object this scene does not own.
	ErrObjectNotFound = errors.New("scene: object not found")
	// ErrNoResourceDictionary is returned by Render when the device has no resource dictionary.
	ErrNoResourceDictionary = errors.New("scene: no resource dictionary for device")
	// ErrSceneClosed completes tasks that were still queued when the scene was closed.
	ErrSceneClosed = errors.New("scene: closed")
)
