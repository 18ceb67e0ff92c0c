package tournament

import "time"

// Timer is the cancellable handle returned by Clock.AfterFunc,
// matching the shape of *time.Timer so production code can use the
// real clock directly while tests substitute a fake one — grounded
// in the teacher's test style of injecting cancellable
// context.Context values in internal/lobby/lobby_test.go.
type Timer interface {
	Stop() bool
}

// Clock is the scheduling collaborator spec.md §6 names: monotonic
// now() plus cancellable scheduled timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// realClock is the production Clock, backed directly by the standard
// library.
type realClock struct{}

// RealClock is the default Clock used outside tests.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
