package batch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"single", ModeSingle, false},
		{"Chunked", ModeChunked, false},
		{" monolithic ", ModeSingle, false},
		{"parallel", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Mode {
	t.Helper()
	m, err := ParseMode(s)
	require.NoError(t, err)
	return m
}

func TestCompare(t *testing.T) {
	t.Run("Incomplete", func(t *testing.T) {
		var tm Timings
		_, err := Compare(tm)
		require.ErrorIs(t, err, ErrIncompleteTimings)

		tm.Set(ModeSingle, time.Second)
		_, err = Compare(tm)
		require.ErrorIs(t, err, ErrIncompleteTimings)
		assert.False(t, tm.Complete())
	})

	t.Run("Longer", func(t *testing.T) {
		var tm Timings
		tm.Set(ModeSingle, 200*time.Millisecond)
		tm.Set(ModeChunked, 250*time.Millisecond)

		c, err := Compare(tm)
		require.NoError(t, err)
		assert.Equal(t, 50*time.Millisecond, c.Delta)
		assert.InDelta(t, 25.0, c.Percent, 1e-9)
		assert.True(t, c.Longer)
		assert.Equal(t, "longer", c.Label())
		assert.Equal(t, "Chunked processing took longer by 50.00ms (25.00%)", c.String())
	})

	t.Run("Shorter", func(t *testing.T) {
		var tm Timings
		tm.Set(ModeSingle, 400*time.Millisecond)
		tm.Set(ModeChunked, 300*time.Millisecond)

		c, err := Compare(tm)
		require.NoError(t, err)
		assert.Equal(t, 100*time.Millisecond, c.Delta)
		assert.InDelta(t, 25.0, c.Percent, 1e-9)
		assert.Equal(t, "shorter", c.Label())
	})

	t.Run("ZeroSingle", func(t *testing.T) {
		var tm Timings
		tm.Set(ModeSingle, 0)
		tm.Set(ModeChunked, time.Millisecond)

		c, err := Compare(tm)
		require.NoError(t, err)
		assert.Zero(t, c.Percent)
		assert.True(t, c.Longer)
	})
}

func TestTimings_Get(t *testing.T) {
	var tm Timings
	_, ok := tm.Get(ModeChunked)
	assert.False(t, ok)

	tm.Set(ModeChunked, 3*time.Millisecond)
	d, ok := tm.Get(ModeChunked)
	assert.True(t, ok)
	assert.Equal(t, 3*time.Millisecond, d)
}

func TestFormatMillis(t *testing.T) {
	assert.Equal(t, "1.50ms", FormatMillis(1500*time.Microsecond))
	assert.InDelta(t, 0.25, Millis(250*time.Microsecond), 1e-12)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]float64{1, 2}, []float64{1, 2}))
	assert.False(t, Equal([]float64{1, 2}, []float64{1}))
	assert.False(t, Equal([]float64{1, 2}, []float64{1, 3}))
}
