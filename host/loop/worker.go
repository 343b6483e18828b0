// Package loop provides the single logical thread on which scene
// construction and loader notifications run.
package loop

import (
	"context"
	"sync"
)

// Worker runs scheduled functions one at a time, in scheduling order.
type Worker interface {
	Schedule(fn func())
}

// Queue is a Worker whose functions are executed by whoever drives it,
// typically the host's main loop.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	signal chan struct{}
}

func NewQueue() *Queue {
	return &Queue{
		signal: make(chan struct{}, 1),
	}
}

func (q *Queue) Schedule(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Process runs every task queued so far, including tasks those tasks
// schedule, and returns how many ran.
func (q *Queue) Process() int {
	count := 0
	for {
		q.mu.Lock()
		tasks := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(tasks) == 0 {
			return count
		}
		for _, task := range tasks {
			task()
			count++
		}
	}
}

// RunUntil processes tasks until done reports true or ctx ends.
func (q *Queue) RunUntil(ctx context.Context, done func() bool) error {
	for {
		q.Process()
		if done() {
			return nil
		}
		select {
		case <-q.signal:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
