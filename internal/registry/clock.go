package registry

import "sync/atomic"

// Clock is the monotonic logical clock that stamps events.
//
// Every committed event gets a strictly increasing seq from this clock, so
// the event log has a deterministic total order that replay reproduces.
// A registry opened on an existing backend resumes from its last seq.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// rewind resets the clock to seq after an abandoned commit released the
// numbers it had taken. Only called under the registry's write lock.
func (c *Clock) rewind(seq int64) {
	c.seq.Store(seq)
}
