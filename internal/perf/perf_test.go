package perf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/timeslice/internal/clock"
	"github.com/rshade/timeslice/internal/hostloop"
)

func TestObserver_ObserveAndStats(t *testing.T) {
	o := NewObserver(0, nil, zerolog.Nop())

	o.Observe("keydown", 10*time.Millisecond)
	o.Observe("keydown", 30*time.Millisecond)
	o.Observe("click", 5*time.Millisecond)

	stats := o.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, InteractionStats{Name: "click", Count: 1, Max: 5 * time.Millisecond, Mean: 5 * time.Millisecond}, stats[0])
	assert.Equal(t, "keydown", stats[1].Name)
	assert.Equal(t, 2, stats[1].Count)
	assert.Equal(t, 30*time.Millisecond, stats[1].Max)
	assert.Equal(t, 20*time.Millisecond, stats[1].Mean)

	assert.Equal(t, 2, testutil.CollectAndCount(o.latency, "timeslice_interaction_latency_seconds"))
}

func TestObserver_ThresholdLogging(t *testing.T) {
	var buf syncBuffer
	logger := zerolog.New(&buf)
	o := NewObserver(50*time.Millisecond, nil, logger)

	o.Observe("fast", time.Millisecond)
	assert.Empty(t, buf.String())

	o.Observe("slow", 50*time.Millisecond)
	assert.Contains(t, buf.String(), `"interaction":"slow"`)
	assert.Contains(t, buf.String(), `"component":"perf"`)
}

func TestObserver_Time(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	o := NewObserver(time.Hour, c, zerolog.Nop())

	stop := o.Time("keydown")
	c.Advance(16 * time.Millisecond)
	assert.Equal(t, 16*time.Millisecond, stop())

	stats := o.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, 16*time.Millisecond, stats[0].Max)
}

func TestObserver_WriteTextfile(t *testing.T) {
	o := NewObserver(time.Hour, nil, zerolog.Nop())
	o.Observe("probe", 2*time.Millisecond)

	path := filepath.Join(t.TempDir(), "timeslice.prom")
	require.NoError(t, o.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `timeslice_interaction_latency_seconds_count{interaction="probe"} 1`)

	err = o.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}

func TestNewProbe_Validation(t *testing.T) {
	q := hostloop.NewQueue(nil)
	_, err := NewProbe(q, 0, nil, nil, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewProbe(nil, time.Second, nil, nil, zerolog.Nop())
	require.Error(t, err)
}

func TestProbe_RecordsLateness(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	q := hostloop.NewQueue(nil)
	o := NewObserver(time.Hour, c, zerolog.Nop())
	p, err := NewProbe(q, DefaultProbeInterval, c, o, zerolog.Nop())
	require.NoError(t, err)

	var seen []int
	p.OnTick(func(n int) { seen = append(seen, n) })

	// A tick queued behind a 250ms blocking task runs 250ms late.
	require.True(t, p.Tick())
	c.Advance(250 * time.Millisecond)
	q.RunOne()

	require.True(t, p.Tick())
	c.Advance(50 * time.Millisecond)
	q.RunOne()

	st := p.Stats()
	assert.Equal(t, 2, st.Ticks)
	assert.Equal(t, 250*time.Millisecond, st.MaxLateness)
	assert.Equal(t, 150*time.Millisecond, st.MeanLateness)
	assert.Equal(t, []int{1, 2}, seen)

	stats := o.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, ProbeInteraction, stats[0].Name)
	assert.Equal(t, 2, stats[0].Count)

	q.Close()
	assert.False(t, p.Tick())
	assert.Equal(t, 1, p.Stats().Missed)

	p.Reset()
	assert.Equal(t, ProbeStats{}, p.Stats())
}

func TestProbe_StartStop(t *testing.T) {
	loop := hostloop.NewEventLoop(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()
	defer loop.Stop()

	p, err := NewProbe(loop, time.Millisecond, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	p.Start(ctx)
	p.Start(ctx)

	require.Eventually(t, func() bool { return p.Stats().Ticks >= 3 }, 2*time.Second, time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestProbe_StopWithoutStart(t *testing.T) {
	p, err := NewProbe(hostloop.NewQueue(nil), time.Second, nil, nil, zerolog.Nop())
	require.NoError(t, err)
	p.Stop()
}
