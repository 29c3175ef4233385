// Package source defines the capability every course loader implements.
package source

import (
	"context"

	"github.com/vk/courseplanner/internal/course"
)

// Source produces course records in the order the backing store holds them.
// Implementations open and close whatever they read within Load.
type Source interface {
	Load(ctx context.Context) ([]course.Course, error)
}

// Func adapts an ordinary function to Source.
type Func func(ctx context.Context) ([]course.Course, error)

// Load calls f.
func (f Func) Load(ctx context.Context) ([]course.Course, error) {
	return f(ctx)
}

// Static is a Source over records already in memory, such as a decoded cache
// snapshot.
type Static []course.Course

// Load returns a copy of s.
func (s Static) Load(context.Context) ([]course.Course, error) {
	out := make([]course.Course, len(s))
	copy(out, s)
	return out, nil
}
