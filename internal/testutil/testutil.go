// Package testutil holds fixtures and helpers shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Context returns a context carrying a debug-level text logger that writes
// into the returned buffer. Set COURSEPLANNER_TEST_LOGS=true to dump the
// captured output when the test finishes.
func Context(t *testing.T) (context.Context, *SafeBuffer) {
	t.Helper()

	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Cleanup(func() {
		if os.Getenv("COURSEPLANNER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), buf.String())
		}
	})

	return ctxlog.WithLogger(context.Background(), logger), buf
}

// WriteFiles materialises files (relative path -> contents) under a fresh
// temporary directory and returns that directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// WriteFile writes one file into a fresh temporary directory and returns its
// full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	return filepath.Join(WriteFiles(t, map[string]string{name: content}), name)
}

// SampleCSV is the reference advising catalog in CSV form.
const SampleCSV = `CSCI100,Introduction to Computer Science
CSCI101,Introduction to Programming in C++,CSCI100
CSCI200,Data Structures,CSCI101
MATH201,Discrete Mathematics
CSCI300,Introduction to Algorithms,CSCI200,MATH201
CSCI301,Advanced Programming in C++,CSCI101
CSCI350,Operating Systems,CSCI300
CSCI400,Large Software Development,CSCI301,CSCI350
`

// SampleCourses returns the records SampleCSV parses to, in file order.
func SampleCourses() []course.Course {
	return []course.Course{
		course.MustNew("CSCI100", "Introduction to Computer Science"),
		course.MustNew("CSCI101", "Introduction to Programming in C++", "CSCI100"),
		course.MustNew("CSCI200", "Data Structures", "CSCI101"),
		course.MustNew("MATH201", "Discrete Mathematics"),
		course.MustNew("CSCI300", "Introduction to Algorithms", "CSCI200", "MATH201"),
		course.MustNew("CSCI301", "Advanced Programming in C++", "CSCI101"),
		course.MustNew("CSCI350", "Operating Systems", "CSCI300"),
		course.MustNew("CSCI400", "Large Software Development", "CSCI301", "CSCI350"),
	}
}

// Index builds a catalog index over records, failing the test on error.
func Index(t *testing.T, records []course.Course) *catalog.Index {
	t.Helper()
	idx, err := catalog.Build(records)
	require.NoError(t, err)
	return idx
}
