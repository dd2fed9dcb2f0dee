package messaging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type ping struct{ n int }
type pong struct{ n int }

func TestPublishIsQueuedUntilPump(t *testing.T) {
	m := New("test")
	var got []int
	Subscribe(m, func(p ping) { got = append(got, p.n) })

	Publish(m, ping{1})
	Publish(m, ping{2})
	assert.Empty(t, got)
	assert.Equal(t, 2, m.Pending())

	assert.Equal(t, 2, m.Pump())
	assert.Equal(t, []int{1, 2}, got)
	assert.Equal(t, uint64(2), m.Delivered())
}

func TestSubscriptionsAreTyped(t *testing.T) {
	m := New("test")
	pings, pongs := 0, 0
	Subscribe(m, func(ping) { pings++ })
	Subscribe(m, func(pong) { pongs++ })

	Publish(m, pong{})
	m.Pump()
	assert.Equal(t, 0, pings)
	assert.Equal(t, 1, pongs)
}

func TestHandlersPublishingAreDrainedInSamePump(t *testing.T) {
	m := New("test")
	var order []string
	Subscribe(m, func(p ping) {
		order = append(order, "ping")
		Publish(m, pong{p.n})
	})
	Subscribe(m, func(pong) { order = append(order, "pong") })

	Publish(m, ping{})
	assert.Equal(t, 2, m.Pump())
	assert.Equal(t, []string{"ping", "pong"}, order)
}

func TestUnsubscribe(t *testing.T) {
	m := New("test")
	calls := 0
	cancel := Subscribe(m, func(ping) { calls++ })
	cancel()
	cancel()

	Publish(m, ping{})
	m.Pump()
	assert.Equal(t, 0, calls)
}

func TestInstallRestorePumps(t *testing.T) {
	m := New("test")
	calls := 0
	Subscribe(m, func(ping) { calls++ })

	restore := m.Install()
	assert.True(t, m.Installed())
	Publish(m, ping{})
	restore()
	assert.False(t, m.Installed())
	assert.Equal(t, 1, calls)
}

func TestConcurrentPublish(t *testing.T) {
	m := New("test")
	total := 0
	Subscribe(m, func(p ping) { total += p.n })

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				Publish(m, ping{1})
			}
		}()
	}
	wg.Wait()
	m.Pump()
	assert.Equal(t, 800, total)
}
