// Package render turns catalog query results into the text, tree, JSON or
// YAML output that commands print. Renderers write to any io.Writer and never
// log; diagnostics belong on stderr through the logger.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/vk/courseplanner/internal/course"
)

// Format selects an output encoding.
type Format string

const (
	Text Format = "text"
	Tree Format = "tree"
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists every supported format in help order.
var Formats = []Format{Text, Tree, JSON, YAML}

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates s. The empty string selects Text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return Text, nil
	}
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", errors.WithHintf(
			errors.Wrapf(ErrUnknownFormat, "%q", s),
			"Supported formats: %s.", formatList(),
		)
	}
	return f, nil
}

// FormatNames returns the supported formats as strings, in help order.
func FormatNames() []string {
	return lo.Map(Formats, func(f Format, _ int) string { return string(f) })
}

func formatList() string {
	return strings.Join(FormatNames(), ", ")
}

// Renderer writes results in one format.
type Renderer struct {
	w      io.Writer
	format Format
	styles styles
}

type styles struct {
	title  lipgloss.Style
	header lipgloss.Style
	cell   lipgloss.Style
	branch lipgloss.Style
	warn   lipgloss.Style
}

// New returns a Renderer writing to w. Styling is resolved against w, so
// output to a file or buffer carries no escape sequences.
func New(w io.Writer, format Format) *Renderer {
	r := lipgloss.NewRenderer(w)
	return &Renderer{
		w:      w,
		format: format,
		styles: styles{
			title:  r.NewStyle().Bold(true),
			header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 2, 0, 0),
			cell:   r.NewStyle().Padding(0, 2, 0, 0),
			branch: r.NewStyle().Foreground(lipgloss.Color("8")),
			warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		},
	}
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format { return r.format }

func (r *Renderer) structured(v any) (bool, error) {
	switch r.format {
	case JSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return true, errors.Wrap(enc.Encode(v), "encode json")
	case YAML:
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, errors.Wrap(err, "encode yaml")
		}
		return true, errors.Wrap(enc.Close(), "encode yaml")
	default:
		return false, nil
	}
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) println(s string) {
	fmt.Fprintln(r.w, s)
}

func records(courses []course.Course) []course.Record {
	return lo.Map(courses, func(c course.Course, _ int) course.Record { return c.Record() })
}

func prerequisiteText(c course.Course) string {
	if !c.HasPrerequisites() {
		return "None"
	}
	return strings.Join(c.Prerequisites(), ", ")
}
