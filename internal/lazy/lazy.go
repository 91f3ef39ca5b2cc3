// Package lazy provides a value that is loaded on first request and cached
// afterwards. Overlay content in the demo is acquired this way: nothing is
// loaded until the overlay is first opened, a placeholder is shown while the
// load is in flight, and later openings reuse the cached value.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNilLoader is returned by Get when the cell was built without a loader.
var ErrNilLoader = errors.New("lazy: nil loader")

// State is the load state of a Cell.
type State int

const (
	// Unrequested means no load has been attempted since creation or Reset.
	Unrequested State = iota
	// Loading means a load is in flight.
	Loading
	// Ready means the value is cached.
	Ready
	// Failed means the last load returned an error. The next request retries.
	Failed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Unrequested:
		return "unrequested"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Loader produces the value of a Cell.
type Loader[T any] func(ctx context.Context) (T, error)

// Cell holds a lazily loaded value. Concurrent requests share one load.
type Cell[T any] struct {
	name   string
	load   Loader[T]
	group  singleflight.Group
	logger zerolog.Logger

	mu    sync.Mutex
	state State
	value T
	err   error
	gen   uint64
}

// New returns an unrequested cell. name is only used in logs.
func New[T any](name string, load Loader[T], logger zerolog.Logger) *Cell[T] {
	return &Cell[T]{
		name:   name,
		load:   load,
		logger: logger.With().Str("component", "lazy").Str("cell", name).Logger(),
	}
}

// Get returns the value, loading it if needed. If ctx ends first Get returns
// ctx.Err(), but the shared load keeps running and its outcome is still
// recorded in the cell.
func (c *Cell[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if c.load == nil {
		return zero, ErrNilLoader
	}

	c.mu.Lock()
	if c.state == Ready {
		v := c.value
		c.mu.Unlock()
		return v, nil
	}
	c.state = Loading
	gen := c.gen
	c.mu.Unlock()

	key := strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.run(context.WithoutCancel(ctx), gen)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cell[T]) run(ctx context.Context, gen uint64) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lazy %s: panic: %v", c.name, r)
		}
		c.settle(gen, v, err)
	}()

	c.logger.Debug().Msg("loading")
	return c.load(ctx)
}

func (c *Cell[T]) settle(gen uint64, v T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		// Reset while loading; the outcome belongs to a previous generation.
		return
	}
	if err != nil {
		c.state = Failed
		c.err = err
		c.logger.Warn().Err(err).Msg("load failed")
		return
	}
	c.state = Ready
	c.value = v
	c.err = nil
	c.logger.Debug().Msg("loaded")
}

// Request starts a load in the background and calls notify with the outcome.
// notify runs on a new goroutine; callers that own a host loop should post
// from it rather than touch their state directly.
func (c *Cell[T]) Request(ctx context.Context, notify func(T, error)) {
	go func() {
		v, err := c.Get(ctx)
		if notify != nil {
			notify(v, err)
		}
	}()
}

// State returns the current load state.
func (c *Cell[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Value returns the cached value and whether it is ready.
func (c *Cell[T]) Value() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		var zero T
		return zero, false
	}
	return c.value, true
}

// Err returns the error of the last failed load.
func (c *Cell[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Failed {
		return nil
	}
	return c.err
}

// Reset drops the cached value. A load in flight is not interrupted but its
// outcome is discarded.
func (c *Cell[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.gen++
	c.state = Unrequested
	c.value = zero
	c.err = nil
}
