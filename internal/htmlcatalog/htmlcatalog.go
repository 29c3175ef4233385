// Package htmlcatalog imports courses from a saved catalog web page. Each
// table row with at least two cells is read as identifier, name and an
// optional comma or whitespace separated prerequisite list.
package htmlcatalog

import (
	"context"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
)

// DefaultSelector matches the rows of the course table.
const DefaultSelector = "table.courses tr"

// Loader reads a single HTML file.
type Loader struct {
	path     string
	selector string
}

// Option configures a Loader.
type Option func(*Loader)

// WithSelector replaces DefaultSelector. An empty selector is ignored.
func WithSelector(selector string) Option {
	return func(l *Loader) {
		if selector != "" {
			l.selector = selector
		}
	}
}

// New returns a Loader for path.
func New(path string, opts ...Option) *Loader {
	if path == "" {
		panic("htmlcatalog: path must not be empty")
	}
	l := &Loader{path: path, selector: DefaultSelector}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements source.Source.
func (l *Loader) Load(ctx context.Context) ([]course.Course, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "html catalog %s", l.path)
	}
	defer f.Close()

	courses, err := Parse(ctx, f, l.selector)
	if err != nil {
		return nil, errors.Wrapf(err, "html catalog %s", l.path)
	}
	return courses, nil
}

// Parse extracts courses from the rows matched by selector. Rows made only of
// header cells or blank cells are skipped; rows with a single data cell are
// skipped with a warning.
func Parse(ctx context.Context, r io.Reader, selector string) ([]course.Course, error) {
	logger := ctxlog.FromContext(ctx)

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}

	rows := doc.Find(selector)
	if rows.Length() == 0 {
		return nil, errors.WithHintf(
			errors.Newf("no rows match selector %q", selector),
			"Point --html-selector at the table rows that hold the catalog.",
		)
	}

	var (
		courses []course.Course
		rowErr  error
	)
	rows.EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return strings.TrimSpace(cell.Text())
		})

		switch {
		case len(cells) == 0 || allBlank(cells):
			return true
		case len(cells) < 2:
			logger.Warn("Skipping table row without a course number and name.", "row", i+1)
			return true
		}

		var prereqs []string
		if len(cells) > 2 {
			prereqs = splitPrerequisites(cells[2])
		}
		c, err := course.New(cells[0], cells[1], prereqs)
		if err != nil {
			rowErr = errors.Wrapf(err, "row %d", i+1)
			return false
		}
		courses = append(courses, c)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}

	logger.Debug("Parsed html catalog.", "rows", rows.Length(), "courses", len(courses))
	return courses, nil
}

func splitPrerequisites(cell string) []string {
	return strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
