package batch

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/clock"
	"github.com/rshade/timeslice/internal/hostloop"
)

// RunStats summarizes one finished harness run.
type RunStats struct {
	Mode     Mode
	Items    int
	Elapsed  time.Duration
	MaxTurn  time.Duration
	Turns    int
	Failures int
}

// HarnessOptions configures a Harness.
type HarnessOptions struct {
	ChunkSize     int
	RetainResults bool
	Clock         clock.Clock
	Logger        *zerolog.Logger
}

// Hooks receive harness events. They run on the host loop, except OnStart
// which runs on the goroutine calling Run.
type Hooks struct {
	OnStart     func(mode Mode)
	OnProgress  func(mode Mode, percent int)
	OnComplete  func(mode Mode, stats RunStats)
	OnItemError func(mode Mode, err *ItemError)
}

// Harness runs either mode over one shared batch and keeps the timing of the
// latest run of each. Only one run is active at a time, so the result buffer
// is never written by two jobs at once.
type Harness[T, R any] struct {
	loop    hostloop.Poster
	compute ComputeFunc[T, R]
	opts    HarnessOptions
	hooks   Hooks
	base    zerolog.Logger
	logger  zerolog.Logger

	mu         sync.Mutex
	batch      []T
	epoch      uint64
	active     bool
	activeMode Mode
	job        *Job[T, R]
	timings    Timings
	stats      map[Mode]RunStats
	results    []R
}

// NewHarness validates the configuration and returns an empty harness.
func NewHarness[T, R any](
	loop hostloop.Poster,
	compute ComputeFunc[T, R],
	opts HarnessOptions,
	hooks Hooks,
) (*Harness[T, R], error) {
	if opts.ChunkSize < MinChunkSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChunkSize, opts.ChunkSize)
	}
	if compute == nil {
		return nil, ErrNilCompute
	}
	if loop == nil {
		return nil, ErrNilLoop
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Harness[T, R]{
		loop:    loop,
		compute: compute,
		opts:    opts,
		hooks:   hooks,
		base:    logger,
		logger:  logger.With().Str("component", "harness").Logger(),
		stats:   make(map[Mode]RunStats),
	}, nil
}

// SetBatch replaces the batch. Any run in flight is abandoned (a chunked job
// is cancelled) and both timings are cleared.
func (h *Harness[T, R]) SetBatch(items []T) {
	h.mu.Lock()
	h.epoch++
	h.batch = items
	h.timings = Timings{}
	h.stats = make(map[Mode]RunStats)
	h.results = nil
	h.active = false
	job := h.job
	h.job = nil
	h.mu.Unlock()

	if job != nil && job.Cancel() {
		h.logger.Debug().Str("job_id", job.ID()).Msg("cancelled in-flight job for new batch")
	}
	h.logger.Info().Int("items", len(items)).Msg("batch generated")
}

// Batch returns the current batch.
func (h *Harness[T, R]) Batch() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.batch
}

// Run starts processing the batch in mode. It returns immediately; progress
// and completion are reported through Hooks.
func (h *Harness[T, R]) Run(mode Mode) error {
	if mode != ModeSingle && mode != ModeChunked {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}

	h.mu.Lock()
	if len(h.batch) == 0 {
		h.mu.Unlock()
		return ErrNoBatch
	}
	if h.active {
		h.mu.Unlock()
		return ErrRunInProgress
	}
	h.epoch++
	epoch := h.epoch
	h.active = true
	h.activeMode = mode
	h.results = nil
	items := h.batch
	h.mu.Unlock()

	h.logger.Info().Str("mode", mode.String()).Int("items", len(items)).Msg("run started")
	if h.hooks.OnStart != nil {
		h.hooks.OnStart(mode)
	}

	var err error
	if mode == ModeChunked {
		err = h.runChunked(epoch, items)
	} else {
		err = h.runSingle(epoch, items)
	}
	if err != nil {
		h.release(epoch)
	}
	return err
}

func (h *Harness[T, R]) runChunked(epoch uint64, items []T) error {
	var job *Job[T, R]
	opts := h.jobOptions(ModeChunked, epoch)
	opts.ChunkSize = h.opts.ChunkSize
	opts.RetainResults = h.opts.RetainResults
	opts.OnComplete = func(elapsed time.Duration) {
		h.finish(epoch, RunStats{
			Mode:     ModeChunked,
			Items:    len(items),
			Elapsed:  elapsed,
			MaxTurn:  job.MaxTurn(),
			Turns:    job.Turns(),
			Failures: len(job.Failures()),
		}, job.Results())
	}

	job, err := NewJob(h.loop, items, h.compute, opts)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.epoch != epoch {
		h.mu.Unlock()
		return nil
	}
	h.job = job
	h.mu.Unlock()

	return job.Start()
}

func (h *Harness[T, R]) runSingle(epoch uint64, items []T) error {
	m, err := NewMonolithic(h.compute, h.jobOptions(ModeSingle, epoch))
	if err != nil {
		return err
	}

	task := func() {
		if !h.isCurrent(epoch) {
			return
		}
		results, runErr := m.Run(items, nil)
		if runErr != nil {
			h.logger.Error().Err(runErr).Msg("monolithic run failed")
			h.release(epoch)
			return
		}
		elapsed, _ := m.Elapsed()
		h.finish(epoch, RunStats{
			Mode:     ModeSingle,
			Items:    len(items),
			Elapsed:  elapsed,
			MaxTurn:  elapsed,
			Turns:    1,
			Failures: len(m.Failures()),
		}, results)
	}

	if !h.loop.Post(task) {
		return ErrLoopClosed
	}
	return nil
}

// jobOptions builds the callbacks shared by both modes. Callbacks from a run
// that has been superseded are dropped.
func (h *Harness[T, R]) jobOptions(mode Mode, epoch uint64) Options {
	opts := Options{
		Clock:  h.opts.Clock,
		Logger: &h.base,
	}
	if h.hooks.OnProgress != nil {
		opts.OnProgress = func(percent int) {
			if h.isCurrent(epoch) {
				h.hooks.OnProgress(mode, percent)
			}
		}
	}
	if h.hooks.OnItemError != nil {
		opts.OnItemError = func(err *ItemError) {
			if h.isCurrent(epoch) {
				h.hooks.OnItemError(mode, err)
			}
		}
	}
	return opts
}

func (h *Harness[T, R]) finish(epoch uint64, stats RunStats, results []R) {
	h.mu.Lock()
	if h.epoch != epoch {
		h.mu.Unlock()
		return
	}
	h.timings.Set(stats.Mode, stats.Elapsed)
	h.stats[stats.Mode] = stats
	h.results = results
	h.active = false
	h.mu.Unlock()

	h.logger.Info().Str("mode", stats.Mode.String()).Dur("elapsed", stats.Elapsed).
		Dur("max_turn", stats.MaxTurn).Int("turns", stats.Turns).Msg("run finished")
	if h.hooks.OnComplete != nil {
		h.hooks.OnComplete(stats.Mode, stats)
	}
}

func (h *Harness[T, R]) release(epoch uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.epoch == epoch {
		h.active = false
	}
}

func (h *Harness[T, R]) isCurrent(epoch uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.epoch == epoch && h.active
}

// Cancel abandons the active run. A chunked job stops before its next chunk;
// a single run that is already executing cannot be interrupted, but its
// result is discarded.
func (h *Harness[T, R]) Cancel() bool {
	h.mu.Lock()
	if !h.active {
		h.mu.Unlock()
		return false
	}
	h.epoch++
	h.active = false
	job := h.job
	h.mu.Unlock()

	if job != nil {
		job.Cancel()
	}
	h.logger.Info().Msg("run cancelled")
	return true
}

// Active returns the mode of the run in progress.
func (h *Harness[T, R]) Active() (Mode, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeMode, h.active
}

// Job returns the most recent chunked job, or nil.
func (h *Harness[T, R]) Job() *Job[T, R] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.job
}

// Timings returns the recorded timings.
func (h *Harness[T, R]) Timings() Timings {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timings
}

// Compare derives the chunked vs single comparison. Both modes must have run
// on the current batch.
func (h *Harness[T, R]) Compare() (Comparison, error) {
	return Compare(h.Timings())
}

// Stats returns the statistics of the latest finished run of mode.
func (h *Harness[T, R]) Stats(mode Mode) (RunStats, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.stats[mode]
	return st, ok
}

// Results returns the results of the latest finished run.
func (h *Harness[T, R]) Results() []R {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.results
}
