// Package csvsource reads a course catalog from CSV rows of the form
// ID,Name,Prereq1,Prereq2,...
package csvsource

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source loads courses from a CSV file on disk.
type Source struct {
	path string
}

// New returns a Source reading path.
func New(path string) *Source {
	if path == "" {
		panic("csvsource: path must not be empty")
	}
	return &Source{path: path}
}

// Path returns the file the source reads.
func (s *Source) Path() string { return s.path }

// Load opens the file and parses it. A missing file yields an error that
// matches fs.ErrNotExist.
func (s *Source) Load(ctx context.Context) ([]course.Course, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "csv catalog %s", s.path)
	}
	if info.IsDir() {
		return nil, errors.Newf("csv catalog %s is a directory, not a file", s.path)
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open csv catalog %s", s.path)
	}
	defer f.Close()

	ctx = ctxlog.WithLogger(ctx, ctxlog.FromContext(ctx).With("path", s.path))
	courses, err := Parse(ctx, f)
	if err != nil {
		return nil, errors.Wrapf(err, "csv catalog %s", s.path)
	}
	return courses, nil
}

// Parse reads CSV records from r. Blank rows are skipped silently; rows with
// fewer than two fields are skipped with a warning. Rows may have any number
// of prerequisite columns.
func Parse(ctx context.Context, r io.Reader) ([]course.Course, error) {
	logger := ctxlog.FromContext(ctx)

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true

	var courses []course.Course
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "invalid csv")
		}
		line, _ := cr.FieldPos(0)

		if blank(row) {
			continue
		}
		if len(row) < 2 {
			logger.Warn("Skipping row without a course number and name.", "line", line)
			skipped++
			continue
		}

		c, err := course.New(row[0], row[1], row[2:])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		courses = append(courses, c)
	}

	logger.Debug("Parsed csv catalog.", "courses", len(courses), "skipped", skipped)
	return courses, nil
}

func blank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
