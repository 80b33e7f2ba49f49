package session

import "time"

type Timer interface {
	Stop() bool
}

// Scheduler is the session's source of time and delayed callbacks.
// Callbacks run on their own goroutine (or the caller's, for test
// schedulers) and must not assume any lock is held.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func RealScheduler() Scheduler { return realScheduler{} }

func (realScheduler) Now() time.Time { return time.Now() }

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
