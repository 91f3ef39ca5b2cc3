// Package perf measures how responsive the host loop stays while work runs on it.
//
// An Observer records interaction latencies (key handling, chunk turns, probe
// lateness) into a Prometheus histogram and logs each entry at or above a
// threshold. A Probe posts a tick to the loop at a fixed interval and measures
// how late each tick runs, which is the headless equivalent of watching an
// on-screen counter freeze.
package perf

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rshade/timeslice/internal/clock"
)

const (
	metricNamespace = "timeslice"
	latencyMetric   = "interaction_latency_seconds"
)

// latencyBuckets spans sub-millisecond turns up to multi-second blocking runs.
var latencyBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.016, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// InteractionStats summarizes the entries recorded for one interaction.
type InteractionStats struct {
	Name  string        `json:"name"`
	Count int           `json:"count"`
	Max   time.Duration `json:"max"`
	Mean  time.Duration `json:"mean"`
}

type tally struct {
	count int
	max   time.Duration
	total time.Duration
}

// Observer records interaction latencies.
type Observer struct {
	registry  *prometheus.Registry
	latency   *prometheus.HistogramVec
	threshold time.Duration
	clock     clock.Clock
	logger    zerolog.Logger

	mu      sync.Mutex
	tallies map[string]*tally
}

// NewObserver returns an observer with its own registry. Entries lasting at
// least threshold are logged; a zero threshold logs every entry.
func NewObserver(threshold time.Duration, clk clock.Clock, logger zerolog.Logger) *Observer {
	if clk == nil {
		clk = clock.System{}
	}
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricNamespace,
		Name:      latencyMetric,
		Help:      "Time between an interaction and the host loop finishing its handling.",
		Buckets:   latencyBuckets,
	}, []string{"interaction"})

	reg := prometheus.NewRegistry()
	reg.MustRegister(latency)

	return &Observer{
		registry:  reg,
		latency:   latency,
		threshold: threshold,
		clock:     clk,
		logger:    logger.With().Str("component", "perf").Logger(),
		tallies:   make(map[string]*tally),
	}
}

// Observe records one entry.
func (o *Observer) Observe(interaction string, d time.Duration) {
	o.latency.WithLabelValues(interaction).Observe(d.Seconds())

	o.mu.Lock()
	t, ok := o.tallies[interaction]
	if !ok {
		t = &tally{}
		o.tallies[interaction] = t
	}
	t.count++
	t.total += d
	t.max = max(t.max, d)
	o.mu.Unlock()

	if d >= o.threshold {
		o.logger.Info().Str("interaction", interaction).Dur("duration", d).Msg("interaction")
	}
}

// Time starts timing an interaction. Call the returned function when its
// handling is finished.
func (o *Observer) Time(interaction string) func() time.Duration {
	start := o.clock.Now()
	return func() time.Duration {
		d := o.clock.Since(start)
		o.Observe(interaction, d)
		return d
	}
}

// Stats returns one summary per interaction, sorted by name.
func (o *Observer) Stats() []InteractionStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]InteractionStats, 0, len(o.tallies))
	for name, t := range o.tallies {
		st := InteractionStats{Name: name, Count: t.count, Max: t.max}
		if t.count > 0 {
			st.Mean = t.total / time.Duration(t.count)
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b InteractionStats) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Registry exposes the observer's metrics registry.
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// WriteTextfile writes the registry in the Prometheus text format to path.
func (o *Observer) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, o.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
