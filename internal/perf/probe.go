package perf

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/clock"
	"github.com/rshade/timeslice/internal/hostloop"
)

// ProbeInteraction is the interaction name probe lateness is recorded under.
const ProbeInteraction = "probe"

// DefaultProbeInterval matches the refresh rate of the on-screen counter.
const DefaultProbeInterval = 100 * time.Millisecond

// ErrInvalidInterval is returned for a non-positive probe interval.
var ErrInvalidInterval = errors.New("probe interval must be positive")

// ProbeStats summarizes the ticks a probe observed.
type ProbeStats struct {
	Ticks        int           `json:"ticks"`
	Missed       int           `json:"missed"`
	MaxLateness  time.Duration `json:"max_lateness"`
	MeanLateness time.Duration `json:"mean_lateness"`
}

// Probe posts a tick to a host loop every interval and records how long each
// tick waited before the loop ran it.
type Probe struct {
	loop     hostloop.Poster
	interval time.Duration
	clock    clock.Clock
	observer *Observer
	logger   zerolog.Logger

	mu        sync.Mutex
	ticks     int
	missed    int
	maxLate   time.Duration
	totalLate time.Duration
	onTick    func(ticks int)

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewProbe returns a stopped probe. observer may be nil.
func NewProbe(
	loop hostloop.Poster,
	interval time.Duration,
	clk clock.Clock,
	observer *Observer,
	logger zerolog.Logger,
) (*Probe, error) {
	if loop == nil {
		return nil, errors.New("probe: nil host loop")
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Probe{
		loop:     loop,
		interval: interval,
		clock:    clk,
		observer: observer,
		logger:   logger.With().Str("component", "probe").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// OnTick registers fn to run on the host loop after every recorded tick.
func (p *Probe) OnTick(fn func(ticks int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onTick = fn
}

// Start posts ticks until ctx ends, Stop is called, or the loop closes.
// Only the first call starts the ticker.
func (p *Probe) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.done)
		t := time.NewTicker(p.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-t.C:
				if !p.Tick() {
					p.logger.Debug().Msg("host loop closed, probe stopping")
					return
				}
			}
		}
	}()
}

// Stop ends the ticker goroutine started by Start and waits for it.
func (p *Probe) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	if p.started.Load() {
		<-p.done
	}
}

// Tick posts a single tick. It returns false if the loop is closed.
func (p *Probe) Tick() bool {
	posted := p.clock.Now()
	ok := p.loop.Post(func() { p.record(p.clock.Since(posted)) })
	if !ok {
		p.mu.Lock()
		p.missed++
		p.mu.Unlock()
	}
	return ok
}

func (p *Probe) record(late time.Duration) {
	p.mu.Lock()
	p.ticks++
	p.totalLate += late
	p.maxLate = max(p.maxLate, late)
	ticks, fn := p.ticks, p.onTick
	p.mu.Unlock()

	if p.observer != nil {
		p.observer.Observe(ProbeInteraction, late)
	}
	if fn != nil {
		fn(ticks)
	}
}

// Stats returns the ticks recorded so far.
func (p *Probe) Stats() ProbeStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := ProbeStats{Ticks: p.ticks, Missed: p.missed, MaxLateness: p.maxLate}
	if p.ticks > 0 {
		st.MeanLateness = p.totalLate / time.Duration(p.ticks)
	}
	return st
}

// Reset clears the recorded ticks.
func (p *Probe) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks, p.missed = 0, 0
	p.maxLate, p.totalLate = 0, 0
}
