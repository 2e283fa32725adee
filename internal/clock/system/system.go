// Package system supplies the wall clock the pipeline uses outside of tests.
// Timestamps are normalized to UTC so stored rows and published events agree
// regardless of host timezone.
package system

import "time"

// Clock satisfies analyzer.Clock with the real time.
type Clock struct{}

// New returns a wall-clock Clock.
func New() *Clock {
	return &Clock{}
}

// Now reports the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
