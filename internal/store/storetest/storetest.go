// Package storetest is the behavioural test suite every store.Mirror
// implementation runs from its own tests.
package storetest

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/store"
	"github.com/vk/courseplanner/internal/testutil"
)

// Opener returns an empty, migrated mirror. Implementations register any
// cleanup on t.
type Opener func(t *testing.T) store.Mirror

// Run exercises m's contract. Subtests run sequentially because some
// backends share one database between them.
func Run(t *testing.T, open Opener) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, m store.Mirror)
	}{
		{"replace and load", testReplaceAndLoad},
		{"replace skips unknown links", testReplaceSkipsUnknownLinks},
		{"replace resolves duplicates", testReplaceResolvesDuplicates},
		{"replace discards previous contents", testReplaceDiscardsPrevious},
		{"course crud", testCourseCRUD},
		{"prerequisite links", testPrerequisiteLinks},
		{"delete cascades", testDeleteCascades},
		{"blank identifiers", testBlankIdentifiers},
		{"drop and migrate", testDropAndMigrate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			tc.fn(t, ctx, open(t))
		})
	}
}

func testReplaceAndLoad(t *testing.T, ctx context.Context, m store.Mirror) {
	stats, err := m.Replace(ctx, testutil.SampleCourses())
	require.NoError(t, err)
	assert.Equal(t, store.MigrationStats{Courses: 8, Links: 8}, stats)

	got, err := m.Load(ctx)
	require.NoError(t, err)

	want := []course.Course{
		course.MustNew("CSCI100", "Introduction to Computer Science"),
		course.MustNew("CSCI101", "Introduction to Programming in C++", "CSCI100"),
		course.MustNew("CSCI200", "Data Structures", "CSCI101"),
		course.MustNew("CSCI300", "Introduction to Algorithms", "CSCI200", "MATH201"),
		course.MustNew("CSCI301", "Advanced Programming in C++", "CSCI101"),
		course.MustNew("CSCI350", "Operating Systems", "CSCI300"),
		course.MustNew("CSCI400", "Large Software Development", "CSCI301", "CSCI350"),
		course.MustNew("MATH201", "Discrete Mathematics"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func testReplaceSkipsUnknownLinks(t *testing.T, ctx context.Context, m store.Mirror) {
	stats, err := m.Replace(ctx, []course.Course{
		course.MustNew("CS101", "Intro"),
		course.MustNew("CS300", "Algorithms", "CS101", "CS999"),
	})
	require.NoError(t, err)
	assert.Equal(t, store.MigrationStats{Courses: 2, Links: 1, Skipped: 1}, stats)

	prereqs, err := m.Prerequisites(ctx, "cs300")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101"}, prereqs)
}

func testReplaceResolvesDuplicates(t *testing.T, ctx context.Context, m store.Mirror) {
	stats, err := m.Replace(ctx, []course.Course{
		course.MustNew("CS101", "First"),
		course.MustNew("CS101", "Second"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Courses)

	c, err := m.Get(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Second", c.Name())
}

func testReplaceDiscardsPrevious(t *testing.T, ctx context.Context, m store.Mirror) {
	_, err := m.Replace(ctx, []course.Course{course.MustNew("OLD1", "Old")})
	require.NoError(t, err)
	_, err = m.Replace(ctx, []course.Course{course.MustNew("NEW1", "New")})
	require.NoError(t, err)

	_, err = m.Get(ctx, "OLD1")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound))
	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testCourseCRUD(t *testing.T, ctx context.Context, m store.Mirror) {
	require.NoError(t, m.AddCourse(ctx, " cs101 ", " Intro to CS "))
	err := m.AddCourse(ctx, "CS101", "Again")
	assert.True(t, errors.Is(err, store.ErrCourseExists), "got %v", err)

	c, err := m.Get(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "CS101", c.ID())
	assert.Equal(t, "Intro to CS", c.Name())
	assert.False(t, c.HasPrerequisites())

	require.NoError(t, m.UpdateCourse(ctx, "cs101", "Introduction to CS"))
	c, err = m.Get(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, "Introduction to CS", c.Name())

	err = m.UpdateCourse(ctx, "NOPE", "x")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)

	require.NoError(t, m.DeleteCourse(ctx, "CS101"))
	err = m.DeleteCourse(ctx, "CS101")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)

	_, err = m.Get(ctx, "CS101")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)
	assert.ErrorContains(t, err, "CS101")
}

func testPrerequisiteLinks(t *testing.T, ctx context.Context, m store.Mirror) {
	for _, id := range []string{"CS101", "CS200", "MATH201"} {
		require.NoError(t, m.AddCourse(ctx, id, id+" name"))
	}

	require.NoError(t, m.AddPrerequisite(ctx, "CS200", "math201"))
	require.NoError(t, m.AddPrerequisite(ctx, "cs200", "CS101"))

	err := m.AddPrerequisite(ctx, "CS200", "CS101")
	assert.True(t, errors.Is(err, store.ErrLinkExists), "got %v", err)
	err = m.AddPrerequisite(ctx, "CS200", "CS999")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)
	err = m.AddPrerequisite(ctx, "CS999", "CS101")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)

	prereqs, err := m.Prerequisites(ctx, "CS200")
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH201"}, prereqs)

	require.NoError(t, m.RemovePrerequisite(ctx, "CS200", "CS101"))
	err = m.RemovePrerequisite(ctx, "CS200", "CS101")
	assert.True(t, errors.Is(err, store.ErrLinkNotFound), "got %v", err)

	prereqs, err = m.Prerequisites(ctx, "CS200")
	require.NoError(t, err)
	assert.Equal(t, []string{"MATH201"}, prereqs)

	_, err = m.Prerequisites(ctx, "CS999")
	assert.True(t, errors.Is(err, store.ErrCourseNotFound), "got %v", err)
}

func testDeleteCascades(t *testing.T, ctx context.Context, m store.Mirror) {
	_, err := m.Replace(ctx, []course.Course{
		course.MustNew("CS101", "Intro"),
		course.MustNew("CS200", "DS", "CS101"),
		course.MustNew("CS300", "Algo", "CS200", "CS101"),
	})
	require.NoError(t, err)

	require.NoError(t, m.DeleteCourse(ctx, "CS101"))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	want := []course.Course{
		course.MustNew("CS200", "DS"),
		course.MustNew("CS300", "Algo", "CS200"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() after delete mismatch (-want +got):\n%s", diff)
	}
}

func testBlankIdentifiers(t *testing.T, ctx context.Context, m store.Mirror) {
	assert.True(t, errors.Is(m.AddCourse(ctx, "  ", "x"), course.ErrEmptyID))
	assert.True(t, errors.Is(m.AddPrerequisite(ctx, "CS101", ""), course.ErrEmptyID))
	_, err := m.Get(ctx, "")
	assert.True(t, errors.Is(err, course.ErrEmptyID))
}

func testDropAndMigrate(t *testing.T, ctx context.Context, m store.Mirror) {
	_, err := m.Replace(ctx, []course.Course{course.MustNew("CS101", "Intro")})
	require.NoError(t, err)

	require.NoError(t, m.Drop(ctx))
	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx), "migrate must be idempotent")

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
