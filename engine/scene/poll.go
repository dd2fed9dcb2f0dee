package scene

import (
	"context"
	"fmt"
	"sync"
)

type pollTask struct {
	ctx  context.Context
	cond func() bool
	task *Task
}

// poller holds condition checks re-armed by the driver after every Update.
type poller struct {
	mu *sync.Mutex

	tasks  []*pollTask
	closed bool
}

func newPoller() *poller {
	return &poller{mu: &sync.Mutex{}}
}

func (p *poller) add(ctx context.Context, cond func() bool) *Task {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return completedTask(ErrSceneClosed)
	}
	t := newTask()
	p.tasks = append(p.tasks, &pollTask{ctx: ctx, cond: cond, task: t})
	return t
}

// check evaluates every pending condition once. A condition that holds completes its task
// even if the context was cancelled in the same tick; otherwise a done context completes
// the task with ctx.Err(). Returns the number of completed tasks.
func (p *poller) check() int {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()

	var keep []*pollTask
	completed := 0
	for _, pt := range tasks {
		ok, err := evaluate(pt.cond)
		switch {
		case err != nil:
			pt.task.complete(err)
		case ok:
			pt.task.complete(nil)
		case pt.ctx.Err() != nil:
			pt.task.complete(pt.ctx.Err())
		default:
			keep = append(keep, pt)
			continue
		}
		completed++
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		for _, pt := range keep {
			pt.task.complete(ErrSceneClosed)
		}
		return completed
	}
	p.tasks = append(keep, p.tasks...)
	p.mu.Unlock()
	return completed
}

func (p *poller) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}

func (p *poller) close(err error) {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.closed = true
	p.mu.Unlock()
	for _, pt := range tasks {
		pt.task.complete(err)
	}
}

func evaluate(cond func() bool) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scene: poll condition panicked: %v", r)
		}
	}()
	return cond(), nil
}
