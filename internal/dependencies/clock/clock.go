package clock

import "time"

// Clock stamps registrations and events. Tests swap in mocks.MockClock.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock, truncated to milliseconds so that
// timestamps survive a round trip through every storage backend unchanged
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current UTC time
func (c *RealClock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
