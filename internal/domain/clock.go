package domain

import "time"

// Clock reports server time in seconds on a monotonic timeline. Values
// are only comparable with other values from the same Clock.
type Clock interface {
	Now() float64
}

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock counting seconds since its creation.
// time.Since uses the monotonic reading, so wall clock adjustments do not
// move it.
func NewMonotonicClock() Clock {
	return monotonicClock{start: time.Now()}
}

func (c monotonicClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
