package sim

import (
	"sync"
	"time"
)

// FastForwardClock maps wall time onto simulated time with a configurable
// speedup factor. Pausing sets the factor to zero and remembers the old
// value, so resuming continues at the previous speed.
type FastForwardClock struct {
	mu          sync.Mutex
	factor      float64
	savedFactor float64
	paused      bool
	simTimeMs   int64
	lastWallMs  int64
	started     bool
}

// NewFastForwardClock creates a clock with the given speedup factor. A
// factor of 1 runs in real time.
func NewFastForwardClock(factor float64) *FastForwardClock {
	if factor <= 0 {
		factor = 1
	}
	return &FastForwardClock{factor: factor}
}

// Advance moves the simulated time forward according to the wall time
// elapsed since the previous call and returns the new simulated time in
// milliseconds. The first call anchors the clock and returns zero.
func (c *FastForwardClock) Advance(wallMs int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		c.started = true
		c.lastWallMs = wallMs
		return c.simTimeMs
	}
	elapsed := wallMs - c.lastWallMs
	c.lastWallMs = wallMs
	if elapsed > 0 {
		c.simTimeMs += int64(float64(elapsed) * c.factor)
	}
	return c.simTimeMs
}

// AdvanceNow advances using the current wall time.
func (c *FastForwardClock) AdvanceNow() int64 {
	return c.Advance(time.Now().UnixMilli())
}

// Now returns the current simulated time without advancing.
func (c *FastForwardClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.simTimeMs
}

// Factor returns the current speedup factor, zero while paused.
func (c *FastForwardClock) Factor() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.factor
}

// SetFactor changes the speedup factor. Setting a factor while paused
// replaces the saved one, so the clock resumes at the new speed.
func (c *FastForwardClock) SetFactor(factor float64) {
	if factor <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.savedFactor = factor
		return
	}
	c.factor = factor
}

// Pause stops simulated time. Pausing twice is a no-op.
func (c *FastForwardClock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		return
	}
	c.savedFactor = c.factor
	c.factor = 0
	c.paused = true
}

// Resume restores the factor saved by Pause.
func (c *FastForwardClock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.paused {
		return
	}
	c.factor = c.savedFactor
	c.paused = false
}

// Paused reports whether the clock is paused.
func (c *FastForwardClock) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}
