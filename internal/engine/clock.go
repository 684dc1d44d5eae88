package engine

import "sync/atomic"

// LogicalClock stamps pipeline stages. Seq values only ever grow; wall time
// is never used for ordering.
type LogicalClock interface {
	Next() int64
	Current() int64
}

// Clock is the production LogicalClock. It is safe for concurrent use, so
// several runs may share one clock and still get distinct seq values.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt resumes a clock after start, typically the store's last seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
