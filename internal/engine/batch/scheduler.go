package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/clock"
	"github.com/rshade/timeslice/internal/hostloop"
	"github.com/rshade/timeslice/internal/logging"
)

// Chunk size configuration.
const (
	// DefaultChunkSize is the number of items computed per host loop turn.
	DefaultChunkSize = 500

	// MinChunkSize is the smallest accepted chunk size.
	MinChunkSize = 1
)

// State is the lifecycle state of a Job.
type State int

const (
	// StateIdle means the job has been created but not started.
	StateIdle State = iota
	// StateRunning means chunks are being processed.
	StateRunning
	// StateCompleted means every item has been processed and completion fired.
	StateCompleted
	// StateAborted means the job was cancelled or lost its host loop.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateAborted
}

// Options configures a Job or a Monolithic executor.
type Options struct {
	// ChunkSize is the number of items computed per turn. Ignored by Monolithic.
	ChunkSize int

	// RetainResults keeps every result in a slice the size of the batch.
	// Monolithic always retains results.
	RetainResults bool

	// OnProgress receives the rounded completion percentage after each chunk.
	OnProgress func(percent int)

	// OnComplete fires exactly once with the elapsed time when the job completes.
	OnComplete func(elapsed time.Duration)

	// OnItemError fires for every item whose compute function fails.
	OnItemError func(err *ItemError)

	// Clock measures elapsed time. Defaults to clock.System.
	Clock clock.Clock

	// Logger receives job lifecycle events. Defaults to a disabled logger.
	Logger *zerolog.Logger
}

// DefaultOptions returns options with the default chunk size.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize}
}

func (o Options) clock() clock.Clock {
	if o.Clock == nil {
		return clock.System{}
	}
	return o.Clock
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}

// Job is one chunked execution of a batch. The batch is referenced, never
// copied or mutated. All chunk work and callbacks run on the host loop; the
// accessors are safe to call from any goroutine.
type Job[T, R any] struct {
	id      string
	items   []T
	opts    Options
	loop    hostloop.Poster
	clock   clock.Clock
	logger  zerolog.Logger
	runner  rangeRunner[T, R]
	done    chan struct{}
	stopped atomic.Bool

	mu        sync.Mutex
	state     State
	cursor    int
	percent   int
	startTime time.Time
	elapsed   time.Duration
	results   []R
	failures  []*ItemError
	turns     int
	maxTurn   time.Duration
	progress  *Progress
}

// NewJob validates the arguments and returns an idle job.
func NewJob[T, R any](
	loop hostloop.Poster,
	items []T,
	compute ComputeFunc[T, R],
	opts Options,
) (*Job[T, R], error) {
	if opts.ChunkSize < MinChunkSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, opts.ChunkSize)
	}
	if compute == nil {
		return nil, ErrNilCompute
	}
	if loop == nil {
		return nil, ErrNilLoop
	}

	id := logging.NewID()
	logger := opts.logger().With().
		Str("component", "batch").
		Str("job_id", id).
		Int("items", len(items)).
		Int("chunk_size", opts.ChunkSize).
		Logger()

	j := &Job[T, R]{
		id:     id,
		items:  items,
		opts:   opts,
		loop:   loop,
		clock:  opts.clock(),
		logger: logger,
		done:   make(chan struct{}),
		state:  StateIdle,
	}
	j.runner = rangeRunner[T, R]{
		compute:     compute,
		onItemError: opts.OnItemError,
		logger:      logger,
	}
	if opts.RetainResults {
		j.results = make([]R, len(items))
	}
	return j, nil
}

// Start creates a job and starts it. See NewJob and Job.Start.
func Start[T, R any](
	loop hostloop.Poster,
	items []T,
	compute ComputeFunc[T, R],
	opts Options,
) (*Job[T, R], error) {
	j, err := NewJob(loop, items, compute, opts)
	if err != nil {
		return nil, err
	}
	if err := j.Start(); err != nil {
		return nil, err
	}
	return j, nil
}

// Start records the start time and posts the first chunk to the host loop.
// An empty batch completes synchronously with zero elapsed time and no
// progress events.
func (j *Job[T, R]) Start() error {
	j.mu.Lock()
	if j.state != StateIdle {
		j.mu.Unlock()
		return ErrAlreadyStarted
	}
	j.state = StateRunning
	j.startTime = j.clock.Now()
	j.progress = NewProgress(j.clock, len(j.items), j.opts.ChunkSize)
	j.mu.Unlock()

	j.logger.Debug().Msg("job started")

	if len(j.items) == 0 {
		j.complete(0)
		return nil
	}

	if !j.loop.Post(j.turn) {
		j.abort("host loop closed before first chunk")
		return ErrLoopClosed
	}
	return nil
}

// turn is one host loop turn: either the completion check or one chunk.
func (j *Job[T, R]) turn() {
	if j.stopped.Load() {
		j.abort("cancelled")
		return
	}

	j.mu.Lock()
	cursor := j.cursor
	j.mu.Unlock()

	total := len(j.items)
	if cursor >= total {
		j.complete(j.clock.Since(j.startTime))
		return
	}

	turnStart := j.clock.Now()
	end := min(cursor+j.opts.ChunkSize, total)

	var out []R
	if j.opts.RetainResults {
		out = make([]R, end-cursor)
	}
	failures := j.runner.run(j.items, cursor, end, out)
	turnTime := j.clock.Since(turnStart)
	percent := Percent(end, total)

	j.mu.Lock()
	if out != nil {
		copy(j.results[cursor:end], out)
	}
	j.failures = append(j.failures, failures...)
	j.cursor = end
	j.percent = percent
	j.turns++
	j.maxTurn = max(j.maxTurn, turnTime)
	j.mu.Unlock()
	j.progress.AddProcessed(end - cursor)

	if j.stopped.Load() {
		j.abort("cancelled")
		return
	}

	j.logger.Trace().Int("cursor", end).Int("percent", percent).Dur("turn", turnTime).Msg("chunk processed")
	if j.opts.OnProgress != nil {
		j.opts.OnProgress(percent)
	}

	if !j.loop.Post(j.turn) {
		j.abort("host loop closed mid-run")
	}
}

func (j *Job[T, R]) complete(elapsed time.Duration) {
	j.mu.Lock()
	if j.state.IsTerminal() {
		j.mu.Unlock()
		return
	}
	j.state = StateCompleted
	j.elapsed = elapsed
	failed := len(j.failures)
	j.mu.Unlock()

	defer close(j.done)

	j.logger.Info().Dur("elapsed", elapsed).Int("failures", failed).Msg("job completed")
	if j.opts.OnComplete != nil {
		j.opts.OnComplete(elapsed)
	}
}

func (j *Job[T, R]) abort(reason string) {
	j.mu.Lock()
	if j.state.IsTerminal() {
		j.mu.Unlock()
		return
	}
	j.state = StateAborted
	cursor := j.cursor
	j.mu.Unlock()

	j.logger.Info().Str("reason", reason).Int("cursor", cursor).Msg("job aborted")
	close(j.done)
}

// Cancel stops the job before its next chunk. No further chunks run and no
// further callbacks fire. It returns false if the job had already finished or
// was already cancelled.
func (j *Job[T, R]) Cancel() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state.IsTerminal() {
		return false
	}
	return j.stopped.CompareAndSwap(false, true)
}

// ID returns the job identifier.
func (j *Job[T, R]) ID() string {
	return j.id
}

// Len returns the number of items in the batch.
func (j *Job[T, R]) Len() int {
	return len(j.items)
}

// ChunkSize returns the configured chunk size.
func (j *Job[T, R]) ChunkSize() int {
	return j.opts.ChunkSize
}

// State returns the current lifecycle state.
func (j *Job[T, R]) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cursor returns the index of the next unprocessed item.
func (j *Job[T, R]) Cursor() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cursor
}

// Percent returns the last reported progress percentage.
func (j *Job[T, R]) Percent() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.percent
}

// Elapsed returns the completion time. ok is false until the job completes.
func (j *Job[T, R]) Elapsed() (time.Duration, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.elapsed, j.state == StateCompleted
}

// Results returns a copy of the results computed so far. It is nil unless
// RetainResults was set.
func (j *Job[T, R]) Results() []R {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.results == nil {
		return nil
	}
	out := make([]R, len(j.results))
	copy(out, j.results)
	return out
}

// Preview returns up to n results starting at index 0.
func (j *Job[T, R]) Preview(n int) []R {
	j.mu.Lock()
	defer j.mu.Unlock()
	n = min(n, j.cursor, len(j.results))
	if n <= 0 {
		return nil
	}
	out := make([]R, n)
	copy(out, j.results[:n])
	return out
}

// Failures returns the items that failed so far.
func (j *Job[T, R]) Failures() []*ItemError {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]*ItemError, len(j.failures))
	copy(out, j.failures)
	return out
}

// Turns returns the number of chunks processed.
func (j *Job[T, R]) Turns() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.turns
}

// MaxTurn returns the longest time a single chunk held the host loop.
func (j *Job[T, R]) MaxTurn() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.maxTurn
}

// Progress returns a snapshot of the progress tracker. The zero value is
// returned for a job that has not started.
func (j *Job[T, R]) Progress() ProgressSnapshot {
	j.mu.Lock()
	p := j.progress
	j.mu.Unlock()
	if p == nil {
		return ProgressSnapshot{TotalItems: len(j.items), ChunkSize: j.opts.ChunkSize}
	}
	return p.Snapshot()
}

// Done is closed when the job completes or aborts.
func (j *Job[T, R]) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job finishes or ctx is done. It returns ErrJobAborted
// for an aborted job.
func (j *Job[T, R]) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.done:
	}
	if j.State() == StateAborted {
		return ErrJobAborted
	}
	return nil
}
