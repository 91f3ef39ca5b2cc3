// Package task drives a suspendable sequence of steps that can be aborted from
// outside between steps.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrAborted is returned by Run when the runner was aborted or its context ended.
var ErrAborted = errors.New("task aborted")

// Sequence yields one step per call to Next. Next reports done once the
// sequence is exhausted; a step that reports done did no work.
type Sequence interface {
	Next(ctx context.Context) (done bool, err error)
}

// Step is one unit of work in a Steps sequence.
type Step func(ctx context.Context) error

type steps struct {
	fns []Step
	pos int
}

// Steps returns a Sequence that runs fns in order.
func Steps(fns ...Step) Sequence {
	return &steps{fns: fns}
}

func (s *steps) Next(ctx context.Context) (bool, error) {
	if s.pos >= len(s.fns) {
		return true, nil
	}
	fn := s.fns[s.pos]
	s.pos++
	return false, fn(ctx)
}

// Sleep returns a step that waits for d or until ctx ends.
func Sleep(d time.Duration) Step {
	return func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Then chains steps into a single step. It stops at the first error.
func Then(fns ...Step) Step {
	return func(ctx context.Context) error {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Sample is the demo sequence: it prints 1 to 4, waiting delay before each
// number after the first.
func Sample(w io.Writer, delay time.Duration) Sequence {
	emit := func(n int) Step {
		return func(context.Context) error {
			_, err := fmt.Fprintln(w, n)
			return err
		}
	}
	return Steps(
		emit(1),
		Then(Sleep(delay), emit(2)),
		Then(Sleep(delay), emit(3)),
		Then(Sleep(delay), emit(4)),
	)
}

// State is the lifecycle state of a Runner.
type State int

const (
	// Idle means no step has run yet.
	Idle State = iota
	// Running means at least one step has started and more may follow.
	Running
	// Done means the sequence was exhausted.
	Done
	// Aborted means Abort was called or the context was cancelled.
	Aborted
	// Failed means a step returned an error.
	Failed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	case Aborted:
		return "aborted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further steps will run.
func (s State) IsTerminal() bool {
	return s == Done || s == Aborted || s == Failed
}

// Runner steps a Sequence until it is exhausted, fails, or is aborted.
type Runner struct {
	seq     Sequence
	logger  zerolog.Logger
	aborted atomic.Bool

	mu    sync.Mutex
	state State
	steps int
	err   error
}

// NewRunner returns an idle runner for seq.
func NewRunner(seq Sequence, logger zerolog.Logger) *Runner {
	return &Runner{
		seq:    seq,
		logger: logger.With().Str("component", "task").Logger(),
	}
}

// Abort asks the runner to stop. The step in progress, if any, finishes
// first; no further step starts.
func (r *Runner) Abort() {
	r.aborted.Store(true)
}

// Step runs at most one step and returns the resulting state. The abort flag
// and ctx are checked before the step starts.
func (r *Runner) Step(ctx context.Context) (State, error) {
	r.mu.Lock()
	if r.state.IsTerminal() {
		st, err := r.state, r.err
		r.mu.Unlock()
		return st, err
	}
	if r.aborted.Load() || ctx.Err() != nil {
		r.state = Aborted
		r.logger.Info().Int("steps", r.steps).Msg("aborted")
		r.mu.Unlock()
		return Aborted, nil
	}
	r.state = Running
	r.mu.Unlock()

	done, err := r.seq.Next(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		r.state = Aborted
		r.logger.Info().Int("steps", r.steps).Msg("aborted")
		return r.state, nil
	case err != nil:
		r.state = Failed
		r.err = fmt.Errorf("step %d: %w", r.steps+1, err)
		r.logger.Error().Err(r.err).Msg("step failed")
		return r.state, r.err
	case done:
		r.state = Done
		r.logger.Info().Int("steps", r.steps).Msg("done")
		return r.state, nil
	default:
		r.steps++
		r.logger.Debug().Int("step", r.steps).Msg("step finished")
		return r.state, nil
	}
}

// Run steps until the runner reaches a terminal state. It returns nil when
// the sequence is exhausted, ErrAborted when aborted, or the step error.
func (r *Runner) Run(ctx context.Context) error {
	for {
		st, err := r.Step(ctx)
		if !st.IsTerminal() {
			continue
		}
		switch st {
		case Aborted:
			return ErrAborted
		case Failed:
			return err
		default:
			return nil
		}
	}
}

// State returns the current state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Steps returns the number of steps completed.
func (r *Runner) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.steps
}
