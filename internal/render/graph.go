package render

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/samber/lo"

	"github.com/vk/courseplanner/internal/dag"
)

// ProblemView is the structured form of one validation finding.
type ProblemView struct {
	Kind         string `json:"kind" yaml:"kind"`
	Course       string `json:"course" yaml:"course"`
	Prerequisite string `json:"prerequisite" yaml:"prerequisite"`
	Message      string `json:"message" yaml:"message"`
}

// ValidationReport is the outcome of validating a catalog of Checked courses.
type ValidationReport struct {
	Valid    bool          `json:"valid" yaml:"valid"`
	Checked  int           `json:"checked" yaml:"checked"`
	Problems []ProblemView `json:"problems" yaml:"problems"`
}

// NewValidationReport wraps the validator's findings.
func NewValidationReport(checked int, problems []dag.Problem) ValidationReport {
	views := lo.Map(problems, func(p dag.Problem, _ int) ProblemView {
		return ProblemView{
			Kind:         p.Kind.String(),
			Course:       p.Course,
			Prerequisite: p.Prerequisite,
			Message:      p.String(),
		}
	})
	return ValidationReport{Valid: len(problems) == 0, Checked: checked, Problems: views}
}

// Validation prints a validation report.
func (r *Renderer) Validation(rep ValidationReport) error {
	if ok, err := r.structured(rep); ok {
		return err
	}

	if rep.Valid {
		r.println(r.styles.title.Render("All prerequisites have been verified as valid"))
		r.printf(" checked %d courses\n", rep.Checked)
		r.println(" no circular dependencies found")
		r.println(" all prerequisites exist in catalog")
		return nil
	}

	r.println(r.styles.warn.Render(fmt.Sprintf("Found %d issues with prerequisites", len(rep.Problems))))
	r.println("")

	if r.format == Tree {
		rows := make([][]string, 0, len(rep.Problems))
		for i, p := range rep.Problems {
			rows = append(rows, []string{strconv.Itoa(i + 1), p.Kind, p.Message})
		}
		r.println(r.table([]string{"#", "KIND", "PROBLEM"}, rows))
		return nil
	}

	for i, p := range rep.Problems {
		r.printf("%d. %s\n", i+1, p.Message)
	}
	return nil
}

// Chain prints a prerequisite chain.
func (r *Renderer) Chain(res *dag.ChainResult) error {
	if ok, err := r.structured(res); ok {
		return err
	}

	header := fmt.Sprintf("%s, %s", res.Course.ID, res.Course.Name)

	switch {
	case res.Total == 0:
		r.println(r.styles.title.Render("Prerequisite chain for " + header))
		r.println("No prerequisites.")
	case r.format == Tree:
		root := tree.Root(r.styles.title.Render(header)).EnumeratorStyle(r.styles.branch)
		for _, depth := range res.Depths() {
			level := tree.Root(fmt.Sprintf("Level %d", depth)).EnumeratorStyle(r.styles.branch)
			for _, e := range res.Levels[depth] {
				level.Child(fmt.Sprintf("%s, %s", e.ID, e.Name))
			}
			root.Child(level)
		}
		r.println(root.String())
	default:
		r.println(r.styles.title.Render("Prerequisite chain for " + header))
		for _, depth := range res.Depths() {
			r.printf("Level %d:\n", depth)
			for _, e := range res.Levels[depth] {
				r.printf("  %s, %s\n", e.ID, e.Name)
			}
		}
	}

	if res.Total > 0 {
		r.printf("Total: %d prerequisites across %d levels\n", res.Total, res.MaxDepth)
	}
	if res.Truncated {
		r.println(r.styles.warn.Render(fmt.Sprintf(
			"Stopped at depth %d; run validate to look for circular dependencies.", res.MaxDepth)))
	}
	return nil
}
