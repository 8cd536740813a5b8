package engine

import "time"

// Scheduler runs fn once after d. Hosts with an event loop should deliver fn
// on that loop.
type Scheduler interface {
	Schedule(d time.Duration, fn func())
}

type SchedulerFunc func(d time.Duration, fn func())

func (f SchedulerFunc) Schedule(d time.Duration, fn func()) { f(d, fn) }

// TimerScheduler fires on a runtime timer goroutine.
type TimerScheduler struct{}

func (TimerScheduler) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}
