package hostloop

import (
	"sync"
)

// Poster schedules a task to run on a host loop after the caller has returned
// control to it. Post reports false when the loop no longer accepts work.
type Poster interface {
	Post(task func()) bool
}

// Queue is a FIFO of pending tasks. It does not run anything by itself; the
// owner calls RunOne or RunPending from the goroutine that acts as the loop.
// Post is safe to call from any goroutine.
type Queue struct {
	mu     sync.Mutex
	tasks  []func()
	notify func()
	closed bool
}

// NewQueue creates a queue. notify, when non-nil, is called after every
// successful Post, outside the queue lock.
func NewQueue(notify func()) *Queue {
	return &Queue{notify: notify}
}

// Post appends task to the queue.
func (q *Queue) Post(task func()) bool {
	if task == nil {
		return false
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.tasks = append(q.tasks, task)
	notify := q.notify
	q.mu.Unlock()

	if notify != nil {
		notify()
	}
	return true
}

// RunOne runs the oldest pending task. It returns false when the queue is empty.
func (q *Queue) RunOne() bool {
	task := q.pop()
	if task == nil {
		return false
	}
	task()
	return true
}

// RunPending runs the tasks that were queued when it was called. Tasks posted
// while they run are left for the next turn, which keeps self-rescheduling
// work from monopolizing a single call.
func (q *Queue) RunPending() int {
	n := q.Len()
	ran := 0
	for range n {
		if !q.RunOne() {
			break
		}
		ran++
	}
	return ran
}

// Drain runs tasks until the queue is empty or maxTasks have run.
// maxTasks <= 0 means no limit.
func (q *Queue) Drain(maxTasks int) int {
	ran := 0
	for maxTasks <= 0 || ran < maxTasks {
		if !q.RunOne() {
			break
		}
		ran++
	}
	return ran
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close discards pending tasks and rejects further posts.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.tasks = nil
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue) pop() func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return task
}
