// Package messaging provides typed, queued message delivery between goroutines.
//
// A Messenger is an explicit handle: subscribers and publishers share it by reference
// instead of looking it up by name. Publish may be called from any goroutine; handlers
// only run inside Pump on the goroutine that owns the messenger (for a scene, the render
// driver while the scene's update runs).
package messaging

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// topic is the subscription key of message type T. Distinct type arguments produce
// distinct comparable keys without reflection.
type topic[T any] struct{}

type subscription struct {
	id      uint64
	deliver func(msg any)
}

// Messenger queues published messages and dispatches them to typed subscribers.
// Thread-safe for concurrent access.
type Messenger struct {
	mu *sync.Mutex

	name        string
	subscribers map[any][]subscription
	pending     []func()
	nextID      uint64

	installed atomic.Int32
	delivered atomic.Uint64
}

// New creates a messenger.
//
// Parameters:
//   - name: label used in logs
//
// Returns:
//   - *Messenger: the new messenger
func New(name string) *Messenger {
	return &Messenger{
		mu:          &sync.Mutex{},
		name:        name,
		subscribers: make(map[any][]subscription),
	}
}

// Name returns the messenger's label.
func (m *Messenger) Name() string { return m.name }

// Subscribe registers fn for messages of type T.
//
// Parameters:
//   - m: the messenger
//   - fn: the handler, run inside Pump
//
// Returns:
//   - func(): unsubscribes fn; safe to call more than once
func Subscribe[T any](m *Messenger, fn func(T)) func() {
	key := topic[T]{}
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subscribers[key] = append(m.subscribers[key], subscription{
		id:      id,
		deliver: func(msg any) { fn(msg.(T)) },
	})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subscribers[key]
		for i, s := range subs {
			if s.id == id {
				m.subscribers[key] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish queues msg for every subscriber of type T. Handlers run on the next Pump.
// Safe from any goroutine.
//
// Parameters:
//   - m: the messenger
//   - msg: the message to deliver
func Publish[T any](m *Messenger, msg T) {
	key := topic[T]{}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, func() {
		m.mu.Lock()
		subs := make([]subscription, len(m.subscribers[key]))
		copy(subs, m.subscribers[key])
		m.mu.Unlock()
		for _, s := range subs {
			s.deliver(msg)
			m.delivered.Add(1)
		}
	})
}

// Pending returns the number of queued, undelivered publishes.
func (m *Messenger) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Delivered returns the total number of handler invocations.
func (m *Messenger) Delivered() uint64 { return m.delivered.Load() }

// Pump delivers every queued message in publish order, including messages published by
// handlers during this call. Must only be called by the owning goroutine.
//
// Returns:
//   - int: the number of publishes dispatched
func (m *Messenger) Pump() int {
	n := 0
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		m.mu.Unlock()
		if len(batch) == 0 {
			return n
		}
		for _, dispatch := range batch {
			dispatch()
			n++
		}
	}
}

// Install marks the messenger as the active sync context of the calling goroutine and
// returns a restore function. The restore function pumps pending messages and must be
// called exactly once, typically deferred.
//
// Returns:
//   - func(): restores the previous state
func (m *Messenger) Install() func() {
	if m.installed.Add(1) > 1 {
		logging.Logger().Warn("messenger installed re-entrantly", "messenger", m.name)
	}
	return func() {
		m.Pump()
		m.installed.Add(-1)
	}
}

// Installed reports whether a sync context is currently installed.
func (m *Messenger) Installed() bool { return m.installed.Load() > 0 }
