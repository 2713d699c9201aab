// Package game holds the pure pieces of a trivia round: the reveal mask, the
// participation tracker and the cancellable round timer.
package game

import "time"

// Clock is the time source used by sessions. Tests swap in a ManualClock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that may be stopped before it runs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// RealClock is backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
