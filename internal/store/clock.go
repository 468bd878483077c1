package store

import "sync/atomic"

// clock is a monotonic logical sequence for ordering archived runs.
// Wall clocks would make listing order depend on when a replay was
// executed instead of what it archived.
type clock struct {
	seq atomic.Int64
}

// newClockAt starts the clock at a known position, used to resume from
// the archive's persisted high-water mark.
func newClockAt(start int64) *clock {
	c := &clock{}
	c.seq.Store(start)
	return c
}

// next returns the next sequence number. Each call returns a unique,
// strictly increasing value.
func (c *clock) next() int64 {
	return c.seq.Add(1)
}
