package batch

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Mode selects how the harness processes a batch.
type Mode int

const (
	// ModeSingle processes the batch in one blocking pass.
	ModeSingle Mode = iota
	// ModeChunked processes the batch in chunks, yielding between them.
	ModeChunked
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeChunked:
		return "chunked"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "single" or "chunked" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "monolithic":
		return ModeSingle, nil
	case "chunked":
		return ModeChunked, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Timings holds the elapsed time of the most recent run of each mode.
type Timings struct {
	Single  *time.Duration
	Chunked *time.Duration
}

// Set records d for mode.
func (t *Timings) Set(mode Mode, d time.Duration) {
	switch mode {
	case ModeSingle:
		t.Single = &d
	case ModeChunked:
		t.Chunked = &d
	}
}

// Get returns the timing for mode, if recorded.
func (t Timings) Get(mode Mode) (time.Duration, bool) {
	var p *time.Duration
	switch mode {
	case ModeSingle:
		p = t.Single
	case ModeChunked:
		p = t.Chunked
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Complete reports whether both modes have a timing.
func (t Timings) Complete() bool {
	return t.Single != nil && t.Chunked != nil
}

// Comparison is the difference between a chunked and a single run.
type Comparison struct {
	Single  time.Duration
	Chunked time.Duration
	// Delta is |Chunked - Single|.
	Delta time.Duration
	// Percent is Delta relative to Single, in percent. Zero when Single is zero.
	Percent float64
	// Longer is true when the chunked run took more time.
	Longer bool
}

// Label returns "longer" or "shorter".
func (c Comparison) Label() string {
	if c.Longer {
		return "longer"
	}
	return "shorter"
}

// String renders the comparison the way the demo reports it.
func (c Comparison) String() string {
	return fmt.Sprintf("Chunked processing took %s by %s (%.2f%%)",
		c.Label(), FormatMillis(c.Delta), c.Percent)
}

// Compare derives the comparison from two recorded timings.
func Compare(t Timings) (Comparison, error) {
	if !t.Complete() {
		return Comparison{}, ErrIncompleteTimings
	}
	single, chunked := *t.Single, *t.Chunked

	delta := chunked - single
	if delta < 0 {
		delta = -delta
	}

	var percent float64
	if single > 0 {
		percent = float64(delta) / float64(single) * percentMultiplier
	}

	return Comparison{
		Single:  single,
		Chunked: chunked,
		Delta:   delta,
		Percent: percent,
		Longer:  chunked > single,
	}, nil
}

// Millis converts d to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FormatMillis renders d as milliseconds with two decimals, e.g. "12.34ms".
func FormatMillis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", Millis(d))
}

// Equal reports whether a and b hold the same elements in the same order.
func Equal[R comparable](a, b []R) bool {
	return slices.Equal(a, b)
}
