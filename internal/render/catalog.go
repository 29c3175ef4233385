package render

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/store"
)

// List prints the whole catalog. Callers pass the courses in the order they
// should appear.
func (r *Renderer) List(courses []course.Course) error {
	if ok, err := r.structured(records(courses)); ok {
		return err
	}

	if len(courses) == 0 {
		r.println(r.styles.warn.Render("No courses loaded."))
		return nil
	}

	if r.format == Tree {
		rows := make([][]string, 0, len(courses))
		for _, c := range courses {
			rows = append(rows, []string{c.ID(), c.Name(), prerequisiteText(c)})
		}
		r.println(r.table([]string{"COURSE", "NAME", "PREREQUISITES"}, rows))
		r.printf("\nTotal: %d courses\n", len(courses))
		return nil
	}

	r.println(r.styles.title.Render("Here is a sample schedule:"))
	r.println("")
	for _, c := range courses {
		r.println(c.String())
	}
	r.printf("\nTotal: %d courses\n", len(courses))
	return nil
}

// Course prints a single search result.
func (r *Renderer) Course(c course.Course) error {
	if ok, err := r.structured(c.Record()); ok {
		return err
	}
	r.println(c.String())
	r.printf("Prerequisites: %s\n", prerequisiteText(c))
	return nil
}

// LoadReport describes a completed load.
type LoadReport struct {
	Courses int    `json:"courses" yaml:"courses"`
	Origin  string `json:"origin" yaml:"origin"`
	Cached  bool   `json:"cached" yaml:"cached"`
}

// Loaded confirms a load command.
func (r *Renderer) Loaded(rep LoadReport) error {
	if ok, err := r.structured(rep); ok {
		return err
	}
	r.printf("Successfully loaded %d courses from %s\n", rep.Courses, rep.Origin)
	if rep.Cached {
		r.println("Data has been cached for future use")
	}
	return nil
}

// MigrationReport describes a completed mirror replacement.
type MigrationReport struct {
	Source string               `json:"source" yaml:"source"`
	Target string               `json:"target" yaml:"target"`
	Stats  store.MigrationStats `json:"stats" yaml:"stats"`
}

// Migrated prints migration totals.
func (r *Renderer) Migrated(rep MigrationReport) error {
	if ok, err := r.structured(rep); ok {
		return err
	}
	r.println(r.styles.title.Render("MIGRATION SUCCESSFUL"))
	r.printf("Source: %s\n", rep.Source)
	r.printf("Target: %s\n", rep.Target)
	r.printf("Migrated %d courses\n", rep.Stats.Courses)
	r.printf("Migrated %d prerequisite relationships\n", rep.Stats.Links)
	if rep.Stats.Skipped > 0 {
		r.println(r.styles.warn.Render(fmt.Sprintf("Skipped %d links to unknown courses", rep.Stats.Skipped)))
	}
	return nil
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	return table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.styles.header
			}
			return r.styles.cell
		}).
		String()
}
