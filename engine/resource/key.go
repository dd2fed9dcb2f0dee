package resource

import "github.com/google/uuid"

// Key identifies a resource inside a scene's per-device dictionaries. A key is either
// named (stable across runs, chosen by the application) or generic (a random UUID).
// Keys are comparable and usable as map keys.
type Key struct {
	name string
	id   uuid.UUID
}

// EmptyKey is the zero key. Passing it to Scene.AddResource allocates a fresh generic key.
var EmptyKey Key

// NewKey returns a fresh generic key.
func NewKey() Key {
	return Key{id: uuid.New()}
}

// Named returns a key identified by name. Named("") is the empty key.
func Named(name string) Key {
	return Key{name: name}
}

// IsEmpty reports whether k is the empty key.
func (k Key) IsEmpty() bool {
	return k == EmptyKey
}

// IsNamed reports whether k was created by Named.
func (k Key) IsNamed() bool {
	return k.name != ""
}

func (k Key) String() string {
	switch {
	case k.name != "":
		return k.name
	case k.id != uuid.Nil:
		return k.id.String()
	default:
		return "<empty>"
	}
}
