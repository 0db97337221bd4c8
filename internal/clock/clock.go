// Package clock narrows the engine's view of time to an injectable
// interface so daily resets and target windows are testable with a
// fake clock.
package clock

import "github.com/jonboulle/clockwork"

type Clock = clockwork.Clock

// New returns the wall clock.
func New() Clock { return clockwork.NewRealClock() }

// DateString returns the local calendar date used for every daily-reset
// comparison. Two instants compare equal here iff they fall on the same
// local calendar day.
func DateString(c Clock) string {
	return c.Now().Format("2006-01-02")
}
