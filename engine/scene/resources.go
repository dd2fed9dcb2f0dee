package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
)

// AddTypedResource is AddResource for a factory returning a concrete resource type.
//
// Parameters:
//   - s: the scene
//   - factory: builds one instance per device
//   - key: the key, or resource.EmptyKey to allocate one
//
// Returns:
//   - resource.Key: the key used
//   - error: see Scene.AddResource
func AddTypedResource[T resource.Resource](s Scene, factory func() T, key resource.Key) (resource.Key, error) {
	return s.AddResource(func() resource.Resource { return factory() }, key)
}

// ManipulateResource calls fn once for the T stored under key in every device dictionary,
// in device order.
//
// Parameters:
//   - s: the scene
//   - fn: the manipulation; an error stops the iteration
//   - key: a non-empty key
//
// Returns:
//   - error: ErrEmptyKey, resource.ErrNotFound, resource.ErrTypeMismatch or fn's error
func ManipulateResource[T resource.Resource](s Scene, fn func(T) error, key resource.Key) error {
	if key.IsEmpty() {
		return ErrEmptyKey
	}
	dicts, err := s.Dictionaries()
	if err != nil {
		return err
	}
	typed := make([]T, 0, len(dicts))
	for _, d := range dicts {
		r, err := resource.Get[T](d, key)
		if err != nil {
			return fmt.Errorf("scene: manipulate %s: %w", key, err)
		}
		typed = append(typed, r)
	}
	for _, r := range typed {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// ManipulateResourceWith is ManipulateResource for use inside a manipulator callback.
//
// Returns:
//   - error: ErrManipulatorExpired outside the callback, otherwise see ManipulateResource
func ManipulateResourceWith[T resource.Resource](m *Manipulator, fn func(T) error, key resource.Key) error {
	s, err := m.Scene()
	if err != nil {
		return err
	}
	return ManipulateResource(s, fn, key)
}
