package compositor

import "sync/atomic"

// SerialCounter hands out monotonically increasing serials for injection
// calls. Zero value is ready to use; safe for concurrent use.
type SerialCounter struct {
	n atomic.Uint32
}

// Next returns a fresh serial. Serials are never reused across calls.
func (c *SerialCounter) Next() uint32 {
	return c.n.Add(1)
}
