package hostloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyRunning is returned when Run is called on a loop that is already running.
var ErrAlreadyRunning = errors.New("event loop is already running")

// EventLoop runs posted tasks on a single goroutine.
type EventLoop struct {
	queue   *Queue
	wake    chan struct{}
	stop    chan struct{}
	once    sync.Once
	running atomic.Bool
	logger  zerolog.Logger
}

// NewEventLoop creates a stopped event loop. Call Run to start draining tasks.
func NewEventLoop(logger zerolog.Logger) *EventLoop {
	l := &EventLoop{
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		logger: logger.With().Str("component", "hostloop").Logger(),
	}
	l.queue = NewQueue(l.signal)
	return l
}

// Post schedules task on the loop.
func (l *EventLoop) Post(task func()) bool {
	return l.queue.Post(task)
}

// PostAfter schedules task on the loop once d has elapsed. The returned
// function cancels the timer if it has not fired yet.
func (l *EventLoop) PostAfter(d time.Duration, task func()) func() bool {
	t := time.AfterFunc(d, func() { l.Post(task) })
	return t.Stop
}

// Pending returns the number of queued tasks.
func (l *EventLoop) Pending() int {
	return l.queue.Len()
}

// Stop makes Run return after the task currently executing, if any.
// Pending tasks are discarded.
func (l *EventLoop) Stop() {
	l.once.Do(func() {
		l.queue.Close()
		close(l.stop)
	})
}

// Run executes tasks until Stop is called or ctx is done. It returns nil
// after Stop and ctx.Err() on context cancellation.
func (l *EventLoop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	l.logger.Debug().Msg("event loop started")
	defer l.logger.Debug().Msg("event loop stopped")

	for {
		for {
			select {
			case <-ctx.Done():
				l.Stop()
				return ctx.Err()
			case <-l.stop:
				return nil
			default:
			}

			task := l.queue.pop()
			if task == nil {
				break
			}
			l.runTask(task)
		}

		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-l.wake:
		}
	}
}

// runTask runs one task and keeps the loop alive if it panics.
func (l *EventLoop) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("task panicked")
		}
	}()
	task()
}

func (l *EventLoop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
