package catalog

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
)

// ErrDuplicateCourse is returned by BuildStrict when two records share an
// identifier.
var ErrDuplicateCourse = errors.New("duplicate course identifier")

// Index maps normalised identifiers to course records.
type Index struct {
	courses map[string]course.Course
	// order holds identifiers in first-insertion order. An overwritten
	// duplicate keeps the position of its first occurrence.
	order []string
}

// New returns an empty index.
func New() *Index {
	return &Index{courses: make(map[string]course.Course)}
}

// Build returns a new index over records. Duplicates are resolved
// last-write-wins without error. A record without an identifier is a contract
// violation and fails the whole build.
func Build(records []course.Course) (*Index, error) {
	idx := New()
	if err := idx.build(records, false); err != nil {
		return nil, err
	}
	return idx, nil
}

// BuildStrict is Build for callers that need identifier uniqueness enforced;
// the first duplicate found is reported as ErrDuplicateCourse.
func BuildStrict(records []course.Course) (*Index, error) {
	idx := New()
	if err := idx.build(records, true); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) build(records []course.Course, strict bool) error {
	courses := make(map[string]course.Course, len(records))
	order := make([]string, 0, len(records))

	for i, rec := range records {
		id := course.NormalizeID(rec.ID())
		if id == "" {
			return errors.Wrapf(course.ErrEmptyID, "record %d", i)
		}
		if _, exists := courses[id]; exists {
			if strict {
				return errors.Wrapf(ErrDuplicateCourse, "%s (record %d)", id, i)
			}
		} else {
			order = append(order, id)
		}
		courses[id] = rec
	}

	idx.courses = courses
	idx.order = order
	return nil
}

// Lookup returns the record stored under the normalised form of id. Unknown
// identifiers report false. A blank id is a caller bug and panics.
func (idx *Index) Lookup(id string) (course.Course, bool) {
	key := course.NormalizeID(id)
	if key == "" {
		panic("catalog: Lookup called with an empty identifier")
	}
	c, ok := idx.courses[key]
	return c, ok
}

// Has reports whether an already-normalised identifier is indexed. Unlike
// Lookup it accepts the empty string and simply reports false.
func (idx *Index) Has(id string) bool {
	_, ok := idx.courses[id]
	return ok
}

// Get is the accessor used by the graph walkers; id must already be
// normalised.
func (idx *Index) Get(id string) (course.Course, bool) {
	c, ok := idx.courses[id]
	return c, ok
}

// Count returns the number of indexed courses.
func (idx *Index) Count() int {
	return len(idx.courses)
}

// IDs returns the identifiers in catalog order.
func (idx *Index) IDs() []string {
	return slices.Clone(idx.order)
}

// Courses returns the records in catalog order.
func (idx *Index) Courses() []course.Course {
	out := make([]course.Course, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.courses[id])
	}
	return out
}

// Sorted returns the records ordered by identifier.
func (idx *Index) Sorted() []course.Course {
	out := idx.Courses()
	slices.SortFunc(out, func(a, b course.Course) int {
		return strings.Compare(a.ID(), b.ID())
	})
	return out
}
