package game

import (
	"sync"
	"time"
)

type timerState int

const (
	timerPending timerState = iota
	timerFired
	timerCancelled
)

// RoundTimer is a single-shot delayed action. It ends either fired or
// cancelled, never both: whichever of Cancel and the deadline comes first
// wins and the other becomes a no-op.
type RoundTimer struct {
	mu    sync.Mutex
	state timerState
	timer Timer
	done  chan struct{}
}

// Schedule runs fn after d on clock unless the returned timer is cancelled first.
func Schedule(clock Clock, d time.Duration, fn func()) *RoundTimer {
	rt := &RoundTimer{done: make(chan struct{})}

	rt.mu.Lock()
	rt.timer = clock.AfterFunc(d, func() {
		if rt.markFired() {
			fn()
		}
	})
	rt.mu.Unlock()

	return rt
}

// Cancel stops the timer. It reports false if the timer already fired or was
// already cancelled.
func (rt *RoundTimer) Cancel() bool {
	if rt == nil {
		return false
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state != timerPending {
		return false
	}
	rt.state = timerCancelled
	rt.timer.Stop()
	close(rt.done)
	return true
}

// Fired reports whether the callback was allowed to run.
func (rt *RoundTimer) Fired() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state == timerFired
}

// Done is closed once the timer leaves the pending state.
func (rt *RoundTimer) Done() <-chan struct{} {
	return rt.done
}

func (rt *RoundTimer) markFired() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state != timerPending {
		return false
	}
	rt.state = timerFired
	close(rt.done)
	return true
}
