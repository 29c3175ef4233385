package course

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrEmptyID is returned when a record is constructed or indexed without an
// identifier. It signals a collaborator bug, not a data-quality problem.
var ErrEmptyID = errors.New("course identifier must not be empty")

// Course is a single catalog entry. Values are created through New and are not
// modified afterwards; the Prerequisites accessor hands out copies.
type Course struct {
	id            string
	name          string
	prerequisites []string
}

// NormalizeID trims surrounding whitespace and upper-cases an identifier.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// New builds a Course from raw input. The identifier and every prerequisite
// are normalised; blank and repeated prerequisites are dropped while the
// order of first appearance is kept.
func New(id, name string, prerequisites []string) (Course, error) {
	normalized := NormalizeID(id)
	if normalized == "" {
		return Course{}, ErrEmptyID
	}

	prereqs := lo.Uniq(lo.Filter(lo.Map(prerequisites, func(p string, _ int) string {
		return NormalizeID(p)
	}), func(p string, _ int) bool {
		return p != ""
	}))

	return Course{
		id:            normalized,
		name:          strings.TrimSpace(name),
		prerequisites: prereqs,
	}, nil
}

// MustNew is New for fixtures and literals known to be valid.
func MustNew(id, name string, prerequisites ...string) Course {
	c, err := New(id, name, prerequisites)
	if err != nil {
		panic(fmt.Sprintf("course.MustNew(%q): %v", id, err))
	}
	return c
}

// ID returns the normalised identifier.
func (c Course) ID() string { return c.id }

// Name returns the trimmed display name.
func (c Course) Name() string { return c.name }

// Prerequisites returns a copy of the normalised prerequisite identifiers.
func (c Course) Prerequisites() []string {
	out := make([]string, len(c.prerequisites))
	copy(out, c.prerequisites)
	return out
}

// PrerequisiteCount returns the number of direct prerequisites. Together with
// Prerequisite it lets graph walks read edges without copying.
func (c Course) PrerequisiteCount() int { return len(c.prerequisites) }

// Prerequisite returns the i-th direct prerequisite.
func (c Course) Prerequisite(i int) string { return c.prerequisites[i] }

// HasPrerequisites reports whether the course lists any prerequisite.
func (c Course) HasPrerequisites() bool { return len(c.prerequisites) > 0 }

// IsZero reports whether c is the zero value, e.g. the result of a failed lookup.
func (c Course) IsZero() bool { return c.id == "" }

// String renders the course the way listings show it: "CS101, Intro to CS".
func (c Course) String() string {
	return fmt.Sprintf("%s, %s", c.id, c.name)
}

// Equal reports whether two courses carry the same identifier, name and
// prerequisite list.
func (c Course) Equal(other Course) bool {
	return c.id == other.id && c.name == other.name && slices.Equal(c.prerequisites, other.prerequisites)
}

// Record is the exported, serialisable shape of a Course used by the cache
// codec and the structured output formats.
type Record struct {
	ID            string   `json:"id" yaml:"id" msgpack:"id"`
	Name          string   `json:"name" yaml:"name" msgpack:"name"`
	Prerequisites []string `json:"prerequisites" yaml:"prerequisites" msgpack:"prerequisites"`
}

// Record returns the serialisable form of c.
func (c Course) Record() Record {
	return Record{ID: c.id, Name: c.name, Prerequisites: c.Prerequisites()}
}

// Course validates r through New.
func (r Record) Course() (Course, error) {
	return New(r.ID, r.Name, r.Prerequisites)
}
