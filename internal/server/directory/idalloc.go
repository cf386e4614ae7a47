package directory

import "sync/atomic"

// IDAllocator hands out post ids: strictly increasing, unique for the
// lifetime of the process, safe for any number of concurrent callers.
type IDAllocator struct {
	last atomic.Int64
}

// Next returns the next id.
func (a *IDAllocator) Next() int64 {
	return a.last.Add(1)
}
