// Package clock provides the game-time source and the deferred callback
// scheduler that the combat core uses for every timed effect: charge
// regeneration, chain telegraphs, summon lifetimes.
//
// Game time only moves when the host advances it, so a paused or
// slowed-down host never fires a timer early.
package clock

import (
	"sync"
	"time"
)

// Epoch is the instant game time starts from.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Source provides the current time.
type Source interface {
	Now() time.Time
}

// Clock is the monotonic game-time source. The engine advances it once per
// tick by the frame delta.
type Clock struct {
	mu      sync.RWMutex
	current time.Time
}

// New creates a clock positioned at Epoch.
func New() *Clock {
	return &Clock{current: Epoch}
}

// NewAt creates a clock positioned at t.
func NewAt(t time.Time) *Clock {
	return &Clock{current: t}
}

// Now returns the current game time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Advance moves game time forward. Negative deltas are ignored.
func (c *Clock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set jumps to an absolute time. Going backwards is ignored.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	if t.After(c.current) {
		c.current = t
	}
	c.mu.Unlock()
}

// Elapsed returns game time since Epoch.
func (c *Clock) Elapsed() time.Duration {
	return c.Now().Sub(Epoch)
}

// SystemClock reads wall time. Used for timestamps that must keep moving
// while the simulation is paused.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
