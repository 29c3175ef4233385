package dag

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/course"
)

// ErrCourseNotFound is matched by every NotFoundError.
var ErrCourseNotFound = errors.New("course not found")

// NotFoundError reports a chain query for an identifier that is not indexed.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("course not found: %s", e.ID)
}

// Is lets errors.Is(err, ErrCourseNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCourseNotFound
}

// Entry is one course reached by the chain walk.
type Entry struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ChainResult is the transitive prerequisite set of one course, bucketed by
// the number of edges walked to reach each entry.
type ChainResult struct {
	Course Entry `json:"course" yaml:"course"`
	// Total counts distinct (depth, course) pairs.
	Total    int             `json:"total" yaml:"total"`
	MaxDepth int             `json:"max_depth" yaml:"max_depth"`
	Levels   map[int][]Entry `json:"levels" yaml:"levels"`
	// Truncated is set when the depth ceiling stopped the walk while courses
	// were still left to expand. Only a cycle or an explicit WithMaxDepth can
	// cause this.
	Truncated bool `json:"truncated" yaml:"truncated"`
}

// Depths returns the populated depths in ascending order.
func (r *ChainResult) Depths() []int {
	return slices.Sorted(maps.Keys(r.Levels))
}

type chainOptions struct {
	maxDepth int
}

// Option tunes a Chain query.
type Option func(*chainOptions)

// WithMaxDepth lowers the depth ceiling to n. Values below one are ignored.
func WithMaxDepth(n int) Option {
	return func(o *chainOptions) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// Chain walks prerequisite edges from startID one level at a time. Every path
// is followed, so a course reachable by paths of different lengths is listed
// once per depth. The walk stops at a ceiling of idx.Count() levels, which no
// acyclic path can exceed, so it terminates on catalogs that were never
// validated.
func Chain(idx *catalog.Index, startID string, opts ...Option) (*ChainResult, error) {
	id := course.NormalizeID(startID)
	start, ok := idx.Get(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	o := chainOptions{maxDepth: idx.Count()}
	for _, opt := range opts {
		opt(&o)
	}
	ceiling := min(o.maxDepth, idx.Count())

	res := &ChainResult{
		Course: Entry{ID: start.ID(), Name: start.Name()},
		Levels: make(map[int][]Entry),
	}

	frontier := []string{start.ID()}
	for depth := 1; len(frontier) > 0; depth++ {
		next := expand(idx, frontier)
		if len(next) == 0 {
			break
		}
		if depth > ceiling {
			res.Truncated = true
			break
		}

		level := make([]Entry, 0, len(next))
		for _, pid := range next {
			c, _ := idx.Get(pid)
			level = append(level, Entry{ID: c.ID(), Name: c.Name()})
		}
		res.Levels[depth] = level
		res.Total += len(level)
		res.MaxDepth = depth
		frontier = next
	}

	return res, nil
}

// expand returns the sorted, distinct indexed prerequisites of frontier.
func expand(idx *catalog.Index, frontier []string) []string {
	seen := make(map[string]struct{})
	var next []string
	for _, id := range frontier {
		c, _ := idx.Get(id)
		for i := range c.PrerequisiteCount() {
			p := c.Prerequisite(i)
			if _, dup := seen[p]; dup || !idx.Has(p) {
				continue
			}
			seen[p] = struct{}{}
			next = append(next, p)
		}
	}
	slices.SortFunc(next, strings.Compare)
	return next
}
