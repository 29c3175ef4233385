package catalog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/course"
)

func ids(courses []course.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID())
	}
	return out
}

func TestBuild_LookupAndCount(t *testing.T) {
	t.Parallel()

	idx, err := Build([]course.Course{
		course.MustNew("CS101", "Intro to CS"),
		course.MustNew("CS200", "Data Structures", "CS101"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Count())

	c, ok := idx.Lookup("CS200")
	require.True(t, ok)
	assert.Equal(t, "Data Structures", c.Name())
	assert.Equal(t, []string{"CS101"}, c.Prerequisites())
}

func TestLookup_IsCaseAndWhitespaceInsensitive(t *testing.T) {
	t.Parallel()

	idx, err := Build([]course.Course{course.MustNew("CS101", "Intro to CS")})
	require.NoError(t, err)

	padded, ok := idx.Lookup(" cs101 ")
	require.True(t, ok)
	exact, ok := idx.Lookup("CS101")
	require.True(t, ok)

	assert.Equal(t, exact, padded)
}

func TestLookup_UnknownIsNotAnError(t *testing.T) {
	t.Parallel()

	idx, err := Build(nil)
	require.NoError(t, err)

	c, ok := idx.Lookup("MATH999")
	assert.False(t, ok)
	assert.True(t, c.IsZero())
}

func TestLookup_BlankPanics(t *testing.T) {
	t.Parallel()

	idx := New()
	assert.Panics(t, func() { idx.Lookup("   ") })
}

func TestBuild_DuplicatesLastWriteWins(t *testing.T) {
	t.Parallel()

	idx, err := Build([]course.Course{
		course.MustNew("CS101", "First"),
		course.MustNew("CS200", "Data Structures"),
		course.MustNew("cs101", "Second", "CS200"),
	})
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, 2, idx.Count(), "count must equal the number of distinct identifiers")
	c, ok := idx.Lookup("CS101")
	require.True(t, ok)
	assert.Equal(t, "Second", c.Name())
	assert.Equal(t, []string{"CS200"}, c.Prerequisites())

	// The overwritten identifier keeps its original position.
	if diff := cmp.Diff([]string{"CS101", "CS200"}, idx.IDs()); diff != "" {
		t.Errorf("catalog order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildStrict_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := BuildStrict([]course.Course{
		course.MustNew("CS101", "First"),
		course.MustNew("CS101", "Second"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateCourse))
	assert.ErrorContains(t, err, "CS101")
}

func TestBuild_EmptyIdentifierFailsFast(t *testing.T) {
	t.Parallel()

	_, err := Build([]course.Course{course.MustNew("CS101", "ok"), {}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, course.ErrEmptyID))
}

func TestCurrent_ReplaceClearsPriorMapping(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cur := NewCurrent(false)
	old, err := cur.Replace([]course.Course{course.MustNew("OLD1", "Old")})
	require.NoError(t, err)

	// --- Act ---
	_, err = cur.Replace([]course.Course{course.MustNew("NEW1", "New")})
	require.NoError(t, err)
	idx := cur.Load()

	// --- Assert ---
	assert.Equal(t, 1, idx.Count())
	_, ok := idx.Lookup("OLD1")
	assert.False(t, ok)
	assert.True(t, idx.Has("NEW1"))
	assert.True(t, old.Has("OLD1"), "published snapshots are never mutated")
	assert.False(t, old.Has("NEW1"))
}

func TestSortedAndCourses(t *testing.T) {
	t.Parallel()

	idx, err := Build([]course.Course{
		course.MustNew("MATH201", "Discrete Math"),
		course.MustNew("CS300", "Algorithms"),
		course.MustNew("CS101", "Intro"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MATH201", "CS300", "CS101"}, ids(idx.Courses()))
	assert.Equal(t, []string{"CS101", "CS300", "MATH201"}, ids(idx.Sorted()))
}

func TestCurrent_ReplaceKeepsOldIndexOnError(t *testing.T) {
	t.Parallel()

	cur := NewCurrent(true)
	assert.Equal(t, 0, cur.Load().Count())

	_, err := cur.Replace([]course.Course{course.MustNew("CS101", "Intro")})
	require.NoError(t, err)

	_, err = cur.Replace([]course.Course{course.MustNew("A", "a"), course.MustNew("A", "b")})
	require.Error(t, err)

	assert.Equal(t, 1, cur.Load().Count())
	assert.True(t, cur.Load().Has("CS101"))
}

func TestCurrent_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	t.Parallel()

	const size = 50
	batch := func(prefix string) []course.Course {
		out := make([]course.Course, 0, size)
		for i := range size {
			out = append(out, course.MustNew(fmt.Sprintf("%s%03d", prefix, i), "n"))
		}
		return out
	}

	cur := NewCurrent(false)
	_, err := cur.Replace(batch("A"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			prefix := "A"
			if i%2 == 0 {
				prefix = "B"
			}
			_, _ = cur.Replace(batch(prefix))
		}
	}()
	go func() {
		defer wg.Done()
		for range 500 {
			snap := cur.Load()
			if snap.Count() != size {
				t.Errorf("observed partial index with %d entries", snap.Count())
				return
			}
		}
	}()
	wg.Wait()
}
