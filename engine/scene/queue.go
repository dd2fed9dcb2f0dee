package scene

import (
	"context"
	"fmt"
	"sync"
)

// Task is the completion handle of a deferred action. It completes once the render driver
// has executed the action, carrying the action's error.
type Task struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// completedTask returns a task that is already complete with err.
func completedTask(err error) *Task {
	t := newTask()
	t.complete(err)
	return t
}

// Done returns a channel closed when the task completes.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the task's error. It is nil until the task completes.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Completed reports whether the task has completed.
func (t *Task) Completed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task completes or ctx is done.
//
// Parameters:
//   - ctx: bounds the wait; it does not cancel the queued action
//
// Returns:
//   - error: the action's error, or ctx.Err() if the wait was abandoned
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) complete(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

type action struct {
	fn   func() error
	task *Task
}

// run executes the action, converting a panic into the task's error.
func (a action) run() {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("scene: deferred action panicked: %v", r)
			}
		}()
		err = a.fn()
	}()
	a.task.complete(err)
}

// actionQueue is a multi-producer, single-consumer FIFO of deferred actions.
type actionQueue struct {
	mu *sync.Mutex

	items  []action
	closed bool
}

func newActionQueue() *actionQueue {
	return &actionQueue{mu: &sync.Mutex{}}
}

func (q *actionQueue) push(fn func() error) *Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return completedTask(ErrSceneClosed)
	}
	t := newTask()
	q.items = append(q.items, action{fn: fn, task: t})
	return t
}

func (q *actionQueue) pop() (action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return action{}, false
	}
	a := q.items[0]
	q.items[0] = action{}
	q.items = q.items[1:]
	return a, true
}

func (q *actionQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drainSnapshot runs only the actions queued when the drain started. Actions they enqueue
// stay queued for the next drain.
func (q *actionQueue) drainSnapshot() int {
	n := q.len()
	for i := range n {
		a, ok := q.pop()
		if !ok {
			return i
		}
		a.run()
	}
	return n
}

// drainAll runs actions until the queue is empty, including actions enqueued meanwhile.
func (q *actionQueue) drainAll() int {
	n := 0
	for {
		a, ok := q.pop()
		if !ok {
			return n
		}
		a.run()
		n++
	}
}

// close fails every queued action with err and rejects future pushes.
func (q *actionQueue) close(err error) {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.closed = true
	q.mu.Unlock()
	for _, a := range items {
		a.task.complete(err)
	}
}
