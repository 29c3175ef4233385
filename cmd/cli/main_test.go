package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/testutil"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "help exits cleanly")
	require.Contains(t, out.String(), "Usage:")
	require.Contains(t, out.String(), "chain")
}

func TestRun_ParseErrorReport(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	stderr := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, args)
	code := report(stderr, err)

	// --- Assert ---
	require.Error(t, err)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Error: unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_NotFoundPrintsHint(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	catalog := testutil.WriteFile(t, "courses.csv", testutil.SampleCSV)
	args := []string{"--no-cache", "-f", catalog, "search", "CSCI999"}
	stderr := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, args)
	code := report(stderr, err)

	// --- Assert ---
	assert.Equal(t, 1, code)
	assert.Equal(t, "Error: course not found: CSCI999\n"+
		"Hint: Course numbers are case-insensitive; run list to see every course.\n", stderr.String())
}

func TestRun_ListsSampleCatalog(t *testing.T) {
	t.Parallel()

	catalog := testutil.WriteFile(t, "courses.csv", testutil.SampleCSV)
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--no-cache", "-f", catalog, "list"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "Here is a sample schedule:")
	assert.Contains(t, out.String(), "Total: 8 courses")
}
