package scheduler

import "time"

// anchorSchedule fires first at a fixed instant and then at fixed period
// increments from it. The grid never re-anchors: a job keeps the cadence of
// its first firing for the life of the process.
type anchorSchedule struct {
	first  time.Time
	period time.Duration
}

// Next returns the earliest grid instant strictly after t.
func (s anchorSchedule) Next(t time.Time) time.Time {
	if t.Before(s.first) {
		return s.first
	}

	steps := int64(t.Sub(s.first)/s.period) + 1

	return s.first.Add(time.Duration(steps) * s.period)
}
