package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/clock"
)

// MonolithicState is the lifecycle state of a Monolithic executor.
type MonolithicState int

const (
	// MonolithicNotStarted means Run has not been called.
	MonolithicNotStarted MonolithicState = iota
	// MonolithicRunning means Run is executing.
	MonolithicRunning
	// MonolithicDone means Run has returned.
	MonolithicDone
)

func (s MonolithicState) String() string {
	switch s {
	case MonolithicNotStarted:
		return "not_started"
	case MonolithicRunning:
		return "running"
	case MonolithicDone:
		return "done"
	default:
		return fmt.Sprintf("monolithic_state(%d)", int(s))
	}
}

// Monolithic computes a whole batch in one uninterrupted pass. It is the
// baseline the chunked Job is measured against and blocks its caller (and the
// host loop, when run as a loop task) for the full duration.
type Monolithic[T, R any] struct {
	opts   Options
	clock  clock.Clock
	logger zerolog.Logger
	runner rangeRunner[T, R]

	mu       sync.Mutex
	state    MonolithicState
	results  []R
	failures []*ItemError
	elapsed  time.Duration
}

// NewMonolithic returns an executor for compute. ChunkSize and RetainResults
// in opts are ignored.
func NewMonolithic[T, R any](compute ComputeFunc[T, R], opts Options) (*Monolithic[T, R], error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	logger := opts.logger().With().Str("component", "batch").Str("mode", ModeSingle.String()).Logger()
	return &Monolithic[T, R]{
		opts:   opts,
		clock:  opts.clock(),
		logger: logger,
		runner: rangeRunner[T, R]{
			compute:     compute,
			onItemError: opts.OnItemError,
			logger:      logger,
		},
	}, nil
}

// Run computes every item, then calls onComplete (falling back to
// Options.OnComplete when nil) with the elapsed time. Options.OnProgress, if
// set, receives 0 before and 100 after a non-empty batch. An executor runs once.
func (m *Monolithic[T, R]) Run(items []T, onComplete func(elapsed time.Duration)) ([]R, error) {
	m.mu.Lock()
	if m.state != MonolithicNotStarted {
		m.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	m.state = MonolithicRunning
	m.mu.Unlock()

	if onComplete == nil {
		onComplete = m.opts.OnComplete
	}

	start := m.clock.Now()
	results := make([]R, len(items))
	var failures []*ItemError
	var elapsed time.Duration

	if len(items) > 0 {
		if m.opts.OnProgress != nil {
			m.opts.OnProgress(0)
		}
		failures = m.runner.run(items, 0, len(items), results)
		elapsed = m.clock.Since(start)
		if m.opts.OnProgress != nil {
			m.opts.OnProgress(percentMultiplier)
		}
	}

	m.mu.Lock()
	m.state = MonolithicDone
	m.results = results
	m.failures = failures
	m.elapsed = elapsed
	m.mu.Unlock()

	m.logger.Info().Int("items", len(items)).Dur("elapsed", elapsed).Int("failures", len(failures)).
		Msg("monolithic run completed")
	if onComplete != nil {
		onComplete(elapsed)
	}
	return results, nil
}

// State returns the executor state.
func (m *Monolithic[T, R]) State() MonolithicState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Elapsed returns the run time. ok is false until Run has returned.
func (m *Monolithic[T, R]) Elapsed() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed, m.state == MonolithicDone
}

// Results returns the results of the run, nil before it finishes.
func (m *Monolithic[T, R]) Results() []R {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results
}

// Failures returns the items that failed during the run.
func (m *Monolithic[T, R]) Failures() []*ItemError {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ItemError, len(m.failures))
	copy(out, m.failures)
	return out
}
