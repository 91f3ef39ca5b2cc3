package batch

import (
	"math"
	"sync"
	"time"

	"github.com/rshade/timeslice/internal/clock"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Percent returns round(100 * done / total). A zero or negative total yields 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) * percentMultiplier / float64(total)))
}

// TotalChunks returns ceil(totalItems / chunkSize).
func TotalChunks(totalItems, chunkSize int) int {
	if totalItems <= 0 || chunkSize <= 0 {
		return 0
	}
	chunks := totalItems / chunkSize
	if totalItems%chunkSize > 0 {
		chunks++
	}
	return chunks
}

// Progress tracks how far a job has advanced through its batch.
// It is safe for concurrent use.
type Progress struct {
	// TotalItems is the total number of items to process.
	TotalItems int

	// ProcessedItems is the number of items processed so far (the job cursor).
	ProcessedItems int

	// TotalChunks is the number of chunks the batch splits into.
	TotalChunks int

	// ProcessedChunks is the number of chunks processed so far.
	ProcessedChunks int

	// ChunkSize is the configured chunk size.
	ChunkSize int

	// StartTime is when processing started.
	StartTime time.Time

	// LastUpdateTime is when progress was last updated.
	LastUpdateTime time.Time

	clock clock.Clock
	mu    sync.RWMutex
}

// NewProgress creates a progress tracker starting now.
func NewProgress(c clock.Clock, totalItems, chunkSize int) *Progress {
	if c == nil {
		c = clock.System{}
	}
	now := c.Now()
	return &Progress{
		TotalItems:     totalItems,
		TotalChunks:    TotalChunks(totalItems, chunkSize),
		ChunkSize:      chunkSize,
		StartTime:      now,
		LastUpdateTime: now,
		clock:          c,
	}
}

// AddProcessed records one finished chunk of itemsProcessed items.
func (p *Progress) AddProcessed(itemsProcessed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ProcessedItems += itemsProcessed
	p.ProcessedChunks++
	p.LastUpdateTime = p.clock.Now()
}

// Snapshot returns a copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalItems:      p.TotalItems,
		ProcessedItems:  p.ProcessedItems,
		TotalChunks:     p.TotalChunks,
		ProcessedChunks: p.ProcessedChunks,
		ChunkSize:       p.ChunkSize,
		StartTime:       p.StartTime,
		LastUpdateTime:  p.LastUpdateTime,
		Percent:         Percent(p.ProcessedItems, p.TotalItems),
		ElapsedTime:     p.clock.Since(p.StartTime),
		ItemsPerSecond:  p.itemsPerSecondUnsafe(),
		Remaining:       p.remainingUnsafe(),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalItems      int
	ProcessedItems  int
	TotalChunks     int
	ProcessedChunks int
	ChunkSize       int
	StartTime       time.Time
	LastUpdateTime  time.Time
	Percent         int
	ElapsedTime     time.Duration
	ItemsPerSecond  float64
	// Remaining extrapolates from the mean time per processed item. It is
	// zero until the first chunk finishes.
	Remaining time.Duration
}

// itemsPerSecondUnsafe must be called with the lock held.
func (p *Progress) itemsPerSecondUnsafe() float64 {
	elapsed := p.clock.Since(p.StartTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.ProcessedItems) / elapsed
}

// remainingUnsafe must be called with the lock held.
func (p *Progress) remainingUnsafe() time.Duration {
	if p.ProcessedItems == 0 {
		return 0
	}
	perItem := p.clock.Since(p.StartTime) / time.Duration(p.ProcessedItems)
	return perItem * time.Duration(p.TotalItems-p.ProcessedItems)
}
