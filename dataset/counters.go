package dataset

import "sync/atomic"

// Counters are the progress counters shared by every worker of a run.
// Files and items advance independently.
type Counters struct {
	files atomic.Int64
	items atomic.Int64
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{}
}

// BumpFiles counts one more observed file and returns the new total.
func (c *Counters) BumpFiles() int64 {
	return c.files.Add(1)
}

// Files returns the number of files observed so far.
func (c *Counters) Files() int64 {
	return c.files.Load()
}

// Items returns the number of records written so far.
func (c *Counters) Items() int64 {
	return c.items.Load()
}
