package game

import (
	"sync"
	"time"
)

// ManualClock only moves when Advance is called. Due callbacks run
// synchronously on the caller's goroutine, in deadline order.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d and runs every callback that becomes
// due, including ones scheduled by callbacks during this call. Each callback
// sees Now() equal to its own deadline.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		next := c.popDue(target)
		if next == nil {
			break
		}
		next.f()
	}

	c.mu.Lock()
	if target.After(c.now) {
		c.now = target
	}
	c.mu.Unlock()
}

// Pending is the number of timers that are neither stopped nor fired.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.pending {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// popDue takes the earliest live timer due at or before target and moves the
// clock to its deadline.
func (c *ManualClock) popDue(target time.Time) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.pending[:0]
	var next *manualTimer
	for _, t := range c.pending {
		if t.stopped || t.fired {
			continue
		}
		live = append(live, t)
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.seq < next.seq) {
			next = t
		}
	}
	c.pending = live
	if next == nil {
		return nil
	}

	next.fired = true
	if next.at.After(c.now) {
		c.now = next.at
	}
	return next
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
