package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFake(start)

	assert.Equal(t, start, c.Now())
	c.Advance(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, c.Since(start))
}

func TestSystem(t *testing.T) {
	var c Clock = System{}
	start := c.Now()
	assert.GreaterOrEqual(t, c.Since(start), time.Duration(0))
}
