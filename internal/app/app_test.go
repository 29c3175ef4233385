package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/cache"
	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/dag"
	"github.com/vk/courseplanner/internal/source"
	"github.com/vk/courseplanner/internal/testutil"
)

const sampleList = `Here is a sample schedule:

CSCI100, Introduction to Computer Science
CSCI101, Introduction to Programming in C++
CSCI200, Data Structures
CSCI300, Introduction to Algorithms
CSCI301, Advanced Programming in C++
CSCI350, Operating Systems
CSCI400, Large Software Development
MATH201, Discrete Mathematics

Total: 8 courses
`

func sampleCatalog(t *testing.T) string {
	t.Helper()
	return testutil.WriteFile(t, "courses.csv", testutil.SampleCSV)
}

func TestLoad_SavesCache(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := sampleCatalog(t)
	a, out, _ := SetupAppTest(t, Config{CatalogPath: path})

	// --- Act ---
	err := a.Load(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "Successfully loaded 8 courses from csv:"+path+"\nData has been cached for future use\n", out.String())
	assert.Equal(t, 8, a.Catalog().Count())

	snap, ok, err := cache.New(a.Config().CachePath).Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "csv:"+path, snap.Origin)
	if diff := cmp.Diff(testutil.SampleCourses(), snap.Courses); diff != "" {
		t.Errorf("cached courses mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoCache(t *testing.T) {
	t.Parallel()

	a, out, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), NoCache: true})

	require.NoError(t, a.Load(context.Background()))

	assert.NotContains(t, out.String(), "cached")
	assert.NoFileExists(t, a.Config().CachePath)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	a, _, _ := SetupAppTest(t, Config{CatalogPath: filepath.Join(t.TempDir(), "missing.csv")})

	err := a.Load(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_StrictIDsRejectsDuplicates(t *testing.T) {
	t.Parallel()

	path := testutil.WriteFile(t, "dup.csv", "CS101,Intro\nCS101,Intro again\n")

	lenient, _, _ := SetupAppTest(t, Config{CatalogPath: path})
	require.NoError(t, lenient.Load(context.Background()))
	c, ok := lenient.Catalog().Lookup("CS101")
	require.True(t, ok)
	assert.Equal(t, "Intro again", c.Name(), "last record wins")

	strict, _, _ := SetupAppTest(t, Config{CatalogPath: path, StrictIDs: true})
	err := strict.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrDuplicateCourse))
	assert.Contains(t, errors.FlattenHints(err), "--strict-ids")
}

func TestList_UsesCacheWhenSourceIsGone(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := sampleCatalog(t)
	cachePath := filepath.Join(t.TempDir(), "catalog.msgpack")
	first, _, _ := SetupAppTest(t, Config{CatalogPath: path, CachePath: cachePath})
	require.NoError(t, first.Load(context.Background()))
	require.NoError(t, os.Remove(path))

	// --- Act ---
	second, out, logs := SetupAppTest(t, Config{CatalogPath: path, CachePath: cachePath})
	err := second.List(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, sampleList, out.String())
	assert.Contains(t, logs.String(), "Auto-loaded catalog from cache.")
}

func TestList_AutoLoadsFromSource(t *testing.T) {
	t.Parallel()

	a, out, logs := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t)})

	require.NoError(t, a.List(context.Background()))

	assert.Equal(t, sampleList, out.String())
	assert.Contains(t, logs.String(), "Auto-loaded catalog from source.")
	assert.FileExists(t, a.Config().CachePath)
}

func TestList_IgnoresCacheFromOtherSource(t *testing.T) {
	t.Parallel()

	cachePath := filepath.Join(t.TempDir(), "catalog.msgpack")
	first, _, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), CachePath: cachePath})
	require.NoError(t, first.Load(context.Background()))

	other := testutil.WriteFile(t, "other.csv", "BIO100,Biology\n")
	second, out, logs := SetupAppTest(t, Config{CatalogPath: other, CachePath: cachePath})
	require.NoError(t, second.List(context.Background()))

	assert.Contains(t, out.String(), "BIO100, Biology")
	assert.NotContains(t, out.String(), "CSCI100")
	assert.Contains(t, logs.String(), "Ignoring cache written for another source.")
}

func TestList_CorruptCacheIsClearedAndReloaded(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	cachePath := filepath.Join(t.TempDir(), "catalog.msgpack")
	require.NoError(t, os.WriteFile(cachePath, []byte("not msgpack at all"), 0o644))
	a, out, logs := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), CachePath: cachePath})

	// --- Act ---
	err := a.List(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, sampleList, out.String())
	assert.Contains(t, logs.String(), "Catalog cache is corrupt")

	_, ok, err := cache.New(cachePath).Load(context.Background())
	require.NoError(t, err, "the cache is rewritten from the source")
	assert.True(t, ok)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		id      string
		want    string
		wantErr error
	}{
		{name: "with prerequisites", id: "CSCI300", want: "CSCI300, Introduction to Algorithms\nPrerequisites: CSCI200, MATH201\n"},
		{name: "case insensitive", id: " math201 ", want: "MATH201, Discrete Mathematics\nPrerequisites: None\n"},
		{name: "unknown", id: "CSCI999", wantErr: dag.ErrCourseNotFound},
		{name: "blank", id: "   ", wantErr: ErrInvalidArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, out, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), NoCache: true})

			err := a.Search(context.Background(), tc.id)

			if tc.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.wantErr), "got %v", err)
				assert.Empty(t, out.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestSearch_NotFoundMessage(t *testing.T) {
	t.Parallel()
	a, _, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), NoCache: true})

	err := a.Search(context.Background(), "csci999")

	require.Error(t, err)
	assert.Equal(t, "course not found: CSCI999", err.Error())
	assert.Contains(t, errors.FlattenHints(err), "case-insensitive")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid catalog", func(t *testing.T) {
		t.Parallel()
		a, out, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t)})

		require.NoError(t, a.Validate(context.Background()))
		assert.Contains(t, out.String(), "All prerequisites have been verified as valid")
		assert.Contains(t, out.String(), "checked 8 courses")
	})

	t.Run("invalid catalog", func(t *testing.T) {
		t.Parallel()
		path := testutil.WriteFile(t, "bad.csv", "CS200,Data Structures,CS300\nCS300,Algorithms,CS200,CS999\n")
		a, out, _ := SetupAppTest(t, Config{CatalogPath: path})

		err := a.Validate(context.Background())

		require.ErrorIs(t, err, ErrInvalidCatalog)
		assert.Equal(t, "Found 2 issues with prerequisites\n\n"+
			"1. CS300: prerequisite CS999 does not exist in the catalog\n"+
			"2. circular dependency detected between CS300 and CS200\n", out.String())
	})
}

func TestChain(t *testing.T) {
	t.Parallel()

	t.Run("reports levels", func(t *testing.T) {
		t.Parallel()
		a, out, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t)})

		require.NoError(t, a.Chain(context.Background(), "csci350", false))
		assert.Contains(t, out.String(), "Prerequisite chain for CSCI350, Operating Systems\n")
		assert.Contains(t, out.String(), "Level 1:\n  CSCI300, Introduction to Algorithms\n")
		assert.Contains(t, out.String(), "Total: 5 prerequisites across 4 levels\n")
	})

	t.Run("max depth truncates", func(t *testing.T) {
		t.Parallel()
		a, out, logs := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t), MaxDepth: 1})

		require.NoError(t, a.Chain(context.Background(), "CSCI350", false))
		assert.Contains(t, out.String(), "Stopped at depth 1")
		assert.Contains(t, logs.String(), "Chain walk hit the depth ceiling.")
	})

	t.Run("strict refuses invalid catalog", func(t *testing.T) {
		t.Parallel()
		path := testutil.WriteFile(t, "cycle.csv", "A,a,B\nB,b,A\n")
		a, out, _ := SetupAppTest(t, Config{CatalogPath: path})

		err := a.Chain(context.Background(), "A", true)
		require.ErrorIs(t, err, ErrInvalidCatalog)
		assert.Empty(t, out.String())

		require.NoError(t, a.Chain(context.Background(), "A", false), "non-strict chain terminates on cycles")
		assert.Contains(t, out.String(), "Stopped at depth 2")
	})

	t.Run("unknown course", func(t *testing.T) {
		t.Parallel()
		a, _, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t)})

		err := a.Chain(context.Background(), "NOPE1", false)
		assert.True(t, errors.Is(err, dag.ErrCourseNotFound))
	})
}

func TestClear(t *testing.T) {
	t.Parallel()

	a, out, _ := SetupAppTest(t, Config{CatalogPath: sampleCatalog(t)})
	require.NoError(t, a.Load(context.Background()))
	out.Reset()

	require.NoError(t, a.Clear(context.Background()))
	assert.Equal(t, "Cache cleared successfully\n", out.String())
	assert.NoFileExists(t, a.Config().CachePath)
	assert.Zero(t, a.Catalog().Count())

	out.Reset()
	require.NoError(t, a.Clear(context.Background()))
	assert.Equal(t, "No cache file at "+a.Config().CachePath+"\n", out.String())
}

func TestWithSource(t *testing.T) {
	t.Parallel()

	static := source.Static{course.MustNew("ENG101", "Composition")}
	a, out, _ := SetupAppTest(t, Config{CatalogPath: "unused.csv", Output: "json"}, WithSource(static, "static"))

	require.NoError(t, a.Load(context.Background()))
	assert.JSONEq(t, `{"courses":1,"origin":"static","cached":true}`, out.String())
}
