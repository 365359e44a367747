package scheduler

import "time"

// Clock is the scheduler's source of time. Reveal delays and poll intervals
// run against it so tests can step through a saga with testutil.FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer is the part of time.Timer the scheduler needs.
type Timer interface {
	// Stop reports false if the timer already fired or was stopped.
	Stop() bool
	C() <-chan time.Time
}

// RealClock is wall-clock time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTimer(d time.Duration) Timer {
	return wallTimer{time.NewTimer(d)}
}

type wallTimer struct{ t *time.Timer }

func (w wallTimer) Stop() bool          { return w.t.Stop() }
func (w wallTimer) C() <-chan time.Time { return w.t.C }
