// Package clock owns the two pieces of calendar arithmetic the schedules
// depend on: the next wall-clock anchor for a job's first firing, and
// ISO-week bucket keys for the rolling weekly tallies.
package clock

import (
	"fmt"
	"time"
)

// Clock hands out the current time. Job bodies take a Clock instead of
// calling time.Now so tests can pin the instant.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

type zoned struct {
	loc *time.Location
}

// NewZoned returns a Clock that reports the current time in loc.
func NewZoned(loc *time.Location) Clock {
	return zoned{loc: loc}
}

func (z zoned) Now() time.Time {
	return time.Now().In(z.loc)
}

// NextDailyAnchor returns today's hour:minute in now's zone if that instant
// is still in the future, otherwise the same wall-clock time tomorrow. A
// candidate exactly equal to now rolls over to tomorrow.
func NextDailyAnchor(now time.Time, hour, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return candidate
}

// WeekKey buckets t into its ISO week, e.g. "2025-W10". Two instants in the
// same ISO week produce identical keys; the caller is expected to pass a
// time already in the configured zone.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
