package service

import "time"

// Clock provides the time resolution passes are stamped with.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// TestClock implements Clock with a time that only moves when told to.
type TestClock struct {
	FixedTime time.Time
}

// Now returns the fixed time.
func (t *TestClock) Now() time.Time {
	return t.FixedTime
}

// Advance moves the clock forward by d.
func (t *TestClock) Advance(d time.Duration) {
	t.FixedTime = t.FixedTime.Add(d)
}
