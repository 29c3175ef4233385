// Package store defines the relational mirror of a course catalog.
//
// A mirror keeps courses and prerequisite links in two tables, courses and
// prerequisites, so that the catalog can be edited record by record and read
// back as a course source. The in-memory graph engine never talks to a mirror
// directly; the application moves records between the two.
//
// # Lifecycle
//
//  1. **Open** a backend (sqlitestore, pgstore, inmemorystore); opening
//     applies the schema.
//  2. **Replace** wholesale from a file catalog (the migrate command), or
//     **edit** one course or link at a time.
//  3. **Load** the mirror back as []course.Course, ordered by course number.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
)

var (
	// ErrCourseExists is returned when adding a course number that is taken.
	ErrCourseExists = errors.New("course already exists")
	// ErrCourseNotFound is returned when an edit names an unknown course.
	ErrCourseNotFound = errors.New("course not found")
	// ErrLinkExists is returned when adding a prerequisite link twice.
	ErrLinkExists = errors.New("prerequisite link already exists")
	// ErrLinkNotFound is returned when removing a link that is not stored.
	ErrLinkNotFound = errors.New("prerequisite link not found")
)

// MigrationStats summarises a Replace.
type MigrationStats struct {
	Courses int `json:"courses" yaml:"courses"`
	Links   int `json:"links" yaml:"links"`
	// Skipped counts prerequisite references whose target course was not
	// part of the replacement set.
	Skipped int `json:"skipped" yaml:"skipped"`
}

// Mirror is implemented by every relational backend. Identifiers passed in
// are normalised by the implementation; a blank identifier yields
// course.ErrEmptyID.
type Mirror interface {
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error
	// Drop removes the schema.
	Drop(ctx context.Context) error
	// Replace swaps the stored catalog for courses in one transaction.
	// Duplicate identifiers resolve last-write-wins. Links to identifiers
	// outside courses are skipped and counted.
	Replace(ctx context.Context, courses []course.Course) (MigrationStats, error)

	// Load returns every course ordered by number, each with its
	// prerequisites ordered by number.
	Load(ctx context.Context) ([]course.Course, error)
	Get(ctx context.Context, id string) (course.Course, error)
	Count(ctx context.Context) (int, error)
	Prerequisites(ctx context.Context, id string) ([]string, error)

	AddCourse(ctx context.Context, id, name string) error
	UpdateCourse(ctx context.Context, id, name string) error
	// DeleteCourse removes the course and every link that mentions it.
	DeleteCourse(ctx context.Context, id string) error
	AddPrerequisite(ctx context.Context, id, prereq string) error
	RemovePrerequisite(ctx context.Context, id, prereq string) error

	Close() error
}

// NormalizeID normalises id and rejects blanks.
func NormalizeID(id string) (string, error) {
	n := course.NormalizeID(id)
	if n == "" {
		return "", course.ErrEmptyID
	}
	return n, nil
}

// Dedupe resolves duplicate identifiers last-write-wins while keeping the
// position of the first occurrence, matching catalog.Build.
func Dedupe(courses []course.Course) []course.Course {
	pos := make(map[string]int, len(courses))
	out := make([]course.Course, 0, len(courses))
	for _, c := range courses {
		if i, ok := pos[c.ID()]; ok {
			out[i] = c
			continue
		}
		pos[c.ID()] = len(out)
		out = append(out, c)
	}
	return out
}

// NotFound wraps ErrCourseNotFound with the identifier.
func NotFound(id string) error {
	return errors.Wrapf(ErrCourseNotFound, "%s", id)
}
