package batch

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/timeslice/internal/clock"
	"github.com/rshade/timeslice/internal/hostloop"
)

// recorder captures job callbacks.
type recorder struct {
	progress  []int
	completes []time.Duration
}

func (r *recorder) options(chunkSize int) Options {
	return Options{
		ChunkSize:     chunkSize,
		RetainResults: true,
		OnProgress:    func(p int) { r.progress = append(r.progress, p) },
		OnComplete:    func(d time.Duration) { r.completes = append(r.completes, d) },
	}
}

func identity(n int) (int, error) { return n, nil }

func TestStart_Validation(t *testing.T) {
	q := hostloop.NewQueue(nil)

	t.Run("InvalidChunkSize", func(t *testing.T) {
		var rec recorder
		job, err := Start(q, Sequence(10), identity, rec.options(0))
		require.ErrorIs(t, err, ErrInvalidChunkSize)
		assert.Nil(t, job)
		assert.Equal(t, 0, q.Len())
		assert.Empty(t, rec.progress)
		assert.Empty(t, rec.completes)
	})

	t.Run("NilCompute", func(t *testing.T) {
		_, err := Start[int, int](q, Sequence(10), nil, DefaultOptions())
		assert.ErrorIs(t, err, ErrNilCompute)
	})

	t.Run("NilLoop", func(t *testing.T) {
		_, err := Start(nil, Sequence(10), identity, DefaultOptions())
		assert.ErrorIs(t, err, ErrNilLoop)
	})

	t.Run("ClosedLoop", func(t *testing.T) {
		closed := hostloop.NewQueue(nil)
		closed.Close()
		_, err := Start(closed, Sequence(10), identity, DefaultOptions())
		assert.ErrorIs(t, err, ErrLoopClosed)
	})

	t.Run("DoubleStart", func(t *testing.T) {
		job, err := NewJob(q, Sequence(3), identity, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, StateIdle, job.State())
		require.NoError(t, job.Start())
		assert.ErrorIs(t, job.Start(), ErrAlreadyStarted)
		q.Drain(0)
		assert.Equal(t, StateCompleted, job.State())
	})
}

func TestJob_EmptyBatch(t *testing.T) {
	q := hostloop.NewQueue(nil)
	var rec recorder

	job, err := Start(q, []int{}, identity, rec.options(5))
	require.NoError(t, err)

	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, []time.Duration{0}, rec.completes)
	assert.Empty(t, rec.progress)
	assert.Equal(t, 0, q.Len())

	elapsed, ok := job.Elapsed()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), elapsed)
	assert.Equal(t, 0, job.Percent())
}

func TestJob_StartDoesNotComputeInline(t *testing.T) {
	q := hostloop.NewQueue(nil)
	calls := 0
	_, err := Start(q, Sequence(10), func(n int) (int, error) {
		calls++
		return n, nil
	}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, q.Len())
}

func TestJob_ProgressAndCompletion(t *testing.T) {
	sizes := []int{1, 7, 500, 1000, 1001}
	const n = 1000

	for _, size := range sizes {
		t.Run("chunk_"+strconv.Itoa(size), func(t *testing.T) {
			q := hostloop.NewQueue(nil)
			var rec recorder
			job, err := Start(q, Sequence(n), identity, rec.options(size))
			require.NoError(t, err)

			q.Drain(0)

			// Monotonic progress ending at exactly 100.
			require.NotEmpty(t, rec.progress)
			for i := 1; i < len(rec.progress); i++ {
				assert.GreaterOrEqual(t, rec.progress[i], rec.progress[i-1])
			}
			assert.Equal(t, 100, rec.progress[len(rec.progress)-1])
			assert.LessOrEqual(t, len(rec.progress), TotalChunks(n, size))

			// Exactly-once completion.
			assert.Len(t, rec.completes, 1)
			assert.Equal(t, StateCompleted, job.State())
			assert.Equal(t, n, job.Cursor())
			assert.Equal(t, TotalChunks(n, size), job.Turns())
		})
	}
}

func TestJob_OrderPreservation(t *testing.T) {
	q := hostloop.NewQueue(nil)
	var seen []int
	_, err := Start(q, Sequence(97), func(n int) (int, error) {
		seen = append(seen, n)
		return n, nil
	}, Options{ChunkSize: 10})
	require.NoError(t, err)

	q.Drain(0)
	assert.Equal(t, Sequence(97), seen)
}

func TestJob_CompletionAfterAllChunks(t *testing.T) {
	q := hostloop.NewQueue(nil)
	var rec recorder
	job, err := Start(q, Sequence(20), identity, rec.options(10))
	require.NoError(t, err)

	require.True(t, q.RunOne())
	assert.Equal(t, []int{50}, rec.progress)
	assert.Empty(t, rec.completes)

	require.True(t, q.RunOne())
	assert.Equal(t, []int{50, 100}, rec.progress)
	assert.Empty(t, rec.completes, "completion happens on the turn after the last chunk")
	_, ok := job.Elapsed()
	assert.False(t, ok)

	require.True(t, q.RunOne())
	assert.Len(t, rec.completes, 1)
	assert.False(t, q.RunOne())
}

func TestJob_BoundedBlocking(t *testing.T) {
	const chunkSize = 25
	for _, n := range []int{100, 10000} {
		q := hostloop.NewQueue(nil)
		callsThisTurn := 0
		maxCalls := 0
		_, err := Start(q, Sequence(n), func(i int) (int, error) {
			callsThisTurn++
			return i, nil
		}, Options{ChunkSize: chunkSize})
		require.NoError(t, err)

		for q.RunOne() {
			maxCalls = max(maxCalls, callsThisTurn)
			callsThisTurn = 0
		}
		assert.Equal(t, chunkSize, maxCalls, "turn size must not grow with batch length %d", n)
	}
}

func TestJob_ConcreteScenario(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	q := hostloop.NewQueue(nil)
	var rec recorder
	opts := rec.options(500)
	opts.Clock = c

	job, err := Start(q, Sequence(100000), func(n int) (float64, error) {
		c.Advance(time.Microsecond)
		return SqrtSquare(n), nil
	}, opts)
	require.NoError(t, err)

	q.Drain(0)

	require.Len(t, rec.progress, 200)
	assert.Equal(t, []int{1, 1, 2}, rec.progress[:3])
	assert.Equal(t, 100, rec.progress[199])
	require.Len(t, rec.completes, 1)
	assert.Greater(t, rec.completes[0], time.Duration(0))
	assert.Equal(t, 100*time.Millisecond, rec.completes[0])

	results := job.Results()
	require.Len(t, results, 100000)
	assert.InDelta(t, 99999.0, results[99999], 1e-9)
	assert.Equal(t, 500*time.Microsecond, job.MaxTurn())
	assert.Equal(t, 100, job.Progress().Percent)
}

func TestJob_MatchesMonolithic(t *testing.T) {
	const n = 503
	items := Sequence(n)
	compute := ExpensiveOperation(10)

	mono, err := NewMonolithic(compute, Options{})
	require.NoError(t, err)
	want, err := mono.Run(items, nil)
	require.NoError(t, err)

	for _, size := range []int{1, 7, 500, n, n + 1} {
		q := hostloop.NewQueue(nil)
		job, startErr := Start(q, items, compute, Options{ChunkSize: size, RetainResults: true})
		require.NoError(t, startErr)
		q.Drain(0)
		assert.True(t, Equal(want, job.Results()), "chunk size %d", size)
	}
}

func TestJob_FailSoft(t *testing.T) {
	q := hostloop.NewQueue(nil)
	errItem := errors.New("bad item")
	var rec recorder
	var reported []int

	opts := rec.options(4)
	opts.OnItemError = func(err *ItemError) { reported = append(reported, err.Index) }

	job, err := Start(q, Sequence(10), func(n int) (int, error) {
		if n == 5 {
			panic("kaboom")
		}
		if n%3 == 0 {
			return 0, errItem
		}
		return n * 10, nil
	}, opts)
	require.NoError(t, err)
	q.Drain(0)

	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, 10, job.Cursor())
	assert.Len(t, rec.completes, 1)
	assert.Equal(t, []int{0, 3, 5, 6, 9}, reported)

	failures := job.Failures()
	require.Len(t, failures, 5)
	assert.ErrorIs(t, failures[0], ErrComputeFailure)
	assert.ErrorIs(t, failures[0], errItem)
	assert.Contains(t, failures[2].Error(), "panic: kaboom")

	assert.Equal(t, []int{0, 10, 20, 0, 40, 0, 0, 70, 80, 0}, job.Results())
}

func TestJob_Cancel(t *testing.T) {
	t.Run("MidRun", func(t *testing.T) {
		q := hostloop.NewQueue(nil)
		var rec recorder
		job, err := Start(q, Sequence(100), identity, rec.options(10))
		require.NoError(t, err)

		q.RunOne()
		q.RunOne()
		require.True(t, job.Cancel())
		assert.False(t, job.Cancel(), "second cancel is a no-op")

		q.Drain(0)
		assert.Equal(t, StateAborted, job.State())
		assert.Equal(t, []int{10, 20}, rec.progress)
		assert.Empty(t, rec.completes)
		assert.Equal(t, 20, job.Cursor())
		assert.ErrorIs(t, job.Wait(context.Background()), ErrJobAborted)
		_, ok := job.Elapsed()
		assert.False(t, ok)
	})

	t.Run("BeforeCompletionTurn", func(t *testing.T) {
		q := hostloop.NewQueue(nil)
		var rec recorder
		job, err := Start(q, Sequence(10), identity, rec.options(10))
		require.NoError(t, err)

		q.RunOne()
		job.Cancel()
		q.Drain(0)
		assert.Equal(t, []int{100}, rec.progress)
		assert.Empty(t, rec.completes)
		assert.Equal(t, StateAborted, job.State())
	})

	t.Run("FromProgressCallback", func(t *testing.T) {
		q := hostloop.NewQueue(nil)
		var job *Job[int, int]
		var progress []int
		job, err := NewJob(q, Sequence(50), identity, Options{
			ChunkSize: 10,
			OnProgress: func(p int) {
				progress = append(progress, p)
				if p >= 40 {
					job.Cancel()
				}
			},
		})
		require.NoError(t, err)
		require.NoError(t, job.Start())
		q.Drain(0)
		assert.Equal(t, []int{20, 40}, progress)
		assert.Equal(t, StateAborted, job.State())
	})

	t.Run("AfterCompletion", func(t *testing.T) {
		q := hostloop.NewQueue(nil)
		job, err := Start(q, Sequence(3), identity, DefaultOptions())
		require.NoError(t, err)
		q.Drain(0)
		assert.False(t, job.Cancel())
		assert.Equal(t, StateCompleted, job.State())
	})
}

func TestJob_LoopClosedMidRun(t *testing.T) {
	q := hostloop.NewQueue(nil)
	var rec recorder
	opts := rec.options(10)
	opts.OnProgress = func(p int) {
		rec.progress = append(rec.progress, p)
		q.Close()
	}
	job, err := Start(q, Sequence(30), identity, opts)
	require.NoError(t, err)

	q.RunOne()
	assert.Equal(t, []int{33}, rec.progress)
	assert.Equal(t, StateAborted, job.State())
	select {
	case <-job.Done():
	default:
		t.Fatal("done channel not closed")
	}
	assert.Empty(t, rec.completes)
}

func TestJob_WaitOnEventLoop(t *testing.T) {
	loop := newRunningLoop(t)
	job, err := Start(loop, Sequence(5000), identity, Options{ChunkSize: 100, RetainResults: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, job.Wait(ctx))

	assert.Equal(t, StateCompleted, job.State())
	assert.Equal(t, Sequence(5000), job.Results())
	assert.Len(t, job.Preview(5), 5)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.True(t, StateAborted.IsTerminal())
	assert.False(t, StateRunning.IsTerminal())
}
