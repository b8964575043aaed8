package engine

import "sync/atomic"

// Clock hands out the sequence numbers stamped on reactor outcomes.
//
// Tick numbers come from the world; Clock orders outcomes within and across
// ticks so that persisted outcomes sort the way they happened.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, e.g. from the last
// outcome seq already in the store.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
