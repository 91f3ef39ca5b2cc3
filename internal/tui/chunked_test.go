package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/timeslice/internal/engine/batch"
)

func TestChunkedTab_StartWithoutBatch(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "s")

	assert.False(t, a.chunked.running)
	assert.Contains(t, a.chunked.status, "generate numbers first")
	assert.Zero(t, a.bridge.Pending())
}

func TestChunkedTab_ChunkedRun(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")

	assert.True(t, a.chunked.running)
	assert.Zero(t, a.chunked.percent)

	a, _ = press(t, a, "s")
	assert.Contains(t, a.chunked.status, "already in progress")

	a = drain(t, a)
	assert.False(t, a.chunked.running)
	assert.Equal(t, 100, a.chunked.percent)
	require.Len(t, a.chunked.preview, previewSize)

	compute := batch.ExpensiveOperation(1)
	want, err := compute(4)
	require.NoError(t, err)
	assert.InDelta(t, want, a.chunked.preview[4], 1e-9)

	_, ok := a.chunked.harness.Timings().Get(batch.ModeChunked)
	assert.True(t, ok)
	assert.Contains(t, a.View(), "chunked processing took")
}

func TestChunkedTab_ProgressBetweenChunks(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")

	m, _ := a.Update(WakeMsg{})
	a = m.(App)
	assert.Equal(t, 10, a.chunked.percent)
	assert.True(t, a.chunked.running)
}

func TestChunkedTab_PreviewAndRateWhileRunning(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")
	assert.Empty(t, a.chunked.preview)
	assert.NotContains(t, a.View(), "items/s")

	m, _ := a.Update(WakeMsg{})
	a = m.(App)
	require.True(t, a.chunked.running)
	require.Len(t, a.chunked.preview, previewSize)
	assert.Equal(t, 100, a.chunked.snapshot.ProcessedItems)
	assert.Equal(t, 1, a.chunked.snapshot.ProcessedChunks)

	view := a.View()
	assert.Contains(t, view, "First results:")
	assert.Contains(t, view, "items/s")
	assert.Contains(t, view, "ETA:")

	a = drain(t, a)
	assert.NotContains(t, a.View(), "items/s")
}

func TestChunkedTab_SingleRunKeepsChunkedPreviewOut(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "m", "s")
	assert.Equal(t, batch.ModeSingle, a.chunked.mode)

	a = drain(t, a)
	assert.False(t, a.chunked.running)
	assert.Zero(t, a.chunked.snapshot.ProcessedChunks)
	require.Len(t, a.chunked.preview, previewSize)
}

func TestChunkedTab_ClosedLoopClearsRunning(t *testing.T) {
	a := newTestApp(t)
	a.bridge.Close()
	a, _ = press(t, a, "g", "s")

	assert.False(t, a.chunked.running)
	assert.Contains(t, a.chunked.status, "no longer accepts tasks")

	a, _ = press(t, a, "m")
	assert.Equal(t, batch.ModeSingle, a.chunked.mode)

	a, _ = press(t, a, "s")
	assert.False(t, a.chunked.running)
	assert.NotContains(t, a.chunked.status, "already in progress")
}

func TestChunkedTab_BothModesCompare(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")
	a = drain(t, a)

	a, _ = press(t, a, "m")
	assert.Equal(t, batch.ModeSingle, a.chunked.mode)
	a, _ = press(t, a, keyEnter)
	a = drain(t, a)

	_, err := a.chunked.harness.Compare()
	require.NoError(t, err)
	view := a.View()
	assert.Contains(t, view, "Chunked processing took")
	assert.Contains(t, view, "First results:")
}

func TestChunkedTab_ModeLockedWhileRunning(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s", "m")
	assert.Equal(t, batch.ModeChunked, a.chunked.mode)
}

func TestChunkedTab_Cancel(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")
	m, _ := a.Update(WakeMsg{})
	a = m.(App)

	a, _ = press(t, a, "c")
	assert.Equal(t, "Cancelled", a.chunked.status)

	a = drain(t, a)
	assert.Less(t, a.chunked.percent, 100)
	assert.False(t, a.chunked.running)
	_, ok := a.chunked.harness.Timings().Get(batch.ModeChunked)
	assert.False(t, ok)
}

func TestChunkedTab_RegenerateClearsResults(t *testing.T) {
	a := newTestApp(t)
	a, _ = press(t, a, "g", "s")
	a = drain(t, a)
	require.NotEmpty(t, a.chunked.preview)

	a, _ = press(t, a, "g")
	assert.Empty(t, a.chunked.preview)
	assert.Zero(t, a.chunked.percent)
	assert.NotContains(t, a.View(), "First results:")
}

func TestChunkedTab_CounterFollowsProbe(t *testing.T) {
	a := newTestApp(t)
	require.True(t, a.probe.Tick())
	require.True(t, a.probe.Tick())
	a = drain(t, a)

	assert.Equal(t, 2, a.chunked.counter)
	assert.Contains(t, a.View(), "Counter:")
}
