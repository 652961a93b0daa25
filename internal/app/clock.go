package service

import (
	"sync"
	"time"
)

// simClock is the session clock of a manually stepped service. It only
// moves when a frame advances it.
type simClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSimClock(start time.Time) *simClock {
	return &simClock{now: start}
}

// Now returns the simulated time.
func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by dt seconds. Non-positive and NaN dt
// leave it unchanged.
func (c *simClock) Advance(dt float64) {
	if !(dt > 0) {
		return
	}
	c.mu.Lock()
	c.now = c.now.Add(time.Duration(dt * float64(time.Second)))
	c.mu.Unlock()
}
