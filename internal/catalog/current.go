package catalog

import (
	"sync/atomic"

	"github.com/vk/courseplanner/internal/course"
)

// Current holds the index a host application is serving. Readers call Load
// and keep using the returned snapshot; Replace builds the next index off to
// the side and publishes it with one atomic swap.
type Current struct {
	ptr    atomic.Pointer[Index]
	strict bool
}

// NewCurrent returns a holder that starts out with an empty index. With strict
// set, Replace enforces identifier uniqueness.
func NewCurrent(strict bool) *Current {
	c := &Current{strict: strict}
	c.ptr.Store(New())
	return c
}

// Load returns the published snapshot. It is never nil.
func (c *Current) Load() *Index {
	return c.ptr.Load()
}

// Replace builds an index from records and publishes it. On error the
// previously published index stays in place.
func (c *Current) Replace(records []course.Course) (*Index, error) {
	build := Build
	if c.strict {
		build = BuildStrict
	}
	next, err := build(records)
	if err != nil {
		return nil, err
	}
	c.ptr.Store(next)
	return next, nil
}
