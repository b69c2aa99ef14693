// Package chain provides the engine's notion of time and execution rounds.
//
// Operations never read the wall clock directly: a Clock supplies the
// current time for deadline checks, and a Counter supplies the monotonic
// round number used to stamp records. Tests substitute both.
package chain

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock supplies the current time for deadline comparisons.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock frozen at a settable instant, for tests.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Counter is the monotonic round (block) number used for record stamps.
type Counter struct {
	n atomic.Uint64
}

func NewCounter(start uint64) *Counter {
	c := &Counter{}
	c.n.Store(start)
	return c
}

func (c *Counter) Current() uint64 {
	return c.n.Load()
}

func (c *Counter) Increment() uint64 {
	return c.n.Add(1)
}
