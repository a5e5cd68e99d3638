package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manual time source. Pass Clock.Now wherever a service takes a
// func() time.Time; session expiry tests move it with Advance.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock reading start, or ReferenceTime for a zero start.
func NewClock(start time.Time) *Clock {
	c := &Clock{now: start}
	if start.IsZero() {
		c.now = ReferenceTime()
	}
	return c
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance returns the time after moving forward by d.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps to t, backwards included.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
