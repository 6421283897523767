package shared

import (
	"sync"
	"time"
)

// Clock supplies wall time to the store and session.
//
// Queue ordering keys are derived from it, so tests inject a [StepClock].
type Clock interface {
	Now() time.Time
}

// SystemClock reads [time.Now].
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// StepClock returns start, start+step, start+2*step, ... on successive calls.
//
// A zero step makes it a frozen clock. Safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a [StepClock] starting at start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	return &StepClock{now: start, step: step}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Set moves the clock to t.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Millis converts t to the unix millisecond value stored in ordering columns.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts a stored unix millisecond value back to a local [time.Time].
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
