package dag

import (
	"fmt"

	"github.com/vk/courseplanner/internal/catalog"
)

// ProblemKind classifies a validation finding.
type ProblemKind int

const (
	// MissingPrerequisite marks an edge to an identifier that is not indexed.
	MissingPrerequisite ProblemKind = iota
	// Cycle marks a back-edge found during the depth-first walk.
	Cycle
)

func (k ProblemKind) String() string {
	switch k {
	case MissingPrerequisite:
		return "missing_prerequisite"
	case Cycle:
		return "cycle"
	default:
		return "unknown"
	}
}

// Problem is one data-quality finding. For a cycle, Course is the node being
// explored and Prerequisite the on-path node its edge led back to; they are
// equal for a self-reference.
type Problem struct {
	Kind         ProblemKind
	Course       string
	Prerequisite string
}

func (p Problem) String() string {
	switch {
	case p.Kind == MissingPrerequisite:
		return fmt.Sprintf("%s: prerequisite %s does not exist in the catalog", p.Course, p.Prerequisite)
	case p.Course == p.Prerequisite:
		return fmt.Sprintf("circular dependency detected: %s lists itself as a prerequisite", p.Course)
	default:
		return fmt.Sprintf("circular dependency detected between %s and %s", p.Course, p.Prerequisite)
	}
}

// Validate checks idx for dangling prerequisite references and cycles. The
// catalog is valid exactly when the returned problem list is empty. Each
// message is Problem.String of the matching Check entry, which is what the
// validate command renders.
func Validate(idx *catalog.Index) (bool, []string) {
	found := Check(idx)
	problems := make([]string, 0, len(found))
	for _, p := range found {
		problems = append(problems, p.String())
	}
	return len(problems) == 0, problems
}

// Check is Validate in structured form. Missing references come first in
// catalog order, followed by cycles in discovery order.
func Check(idx *catalog.Index) []Problem {
	problems := missingPrerequisites(idx)
	return append(problems, cycles(idx)...)
}

func missingPrerequisites(idx *catalog.Index) []Problem {
	var problems []Problem
	for _, c := range idx.Courses() {
		for i := range c.PrerequisiteCount() {
			p := c.Prerequisite(i)
			if !idx.Has(p) {
				problems = append(problems, Problem{Kind: MissingPrerequisite, Course: c.ID(), Prerequisite: p})
			}
		}
	}
	return problems
}

type visitState uint8

const (
	unvisited visitState = iota
	onPath
	resolved
)

// frame is one entry of the explicit DFS stack: the node and the index of the
// next prerequisite edge to explore.
type frame struct {
	id   string
	next int
}

// cycles walks the graph depth-first with an explicit stack so that deep
// chains cannot exhaust the goroutine stack.
func cycles(idx *catalog.Index) []Problem {
	var problems []Problem
	state := make(map[string]visitState, idx.Count())
	reported := make(map[[2]string]struct{})

	report := func(from, to string) {
		key := [2]string{from, to}
		if to < from {
			key = [2]string{to, from}
		}
		if _, seen := reported[key]; seen {
			return
		}
		reported[key] = struct{}{}
		problems = append(problems, Problem{Kind: Cycle, Course: from, Prerequisite: to})
	}

	for _, root := range idx.IDs() {
		if state[root] != unvisited {
			continue
		}

		state[root] = onPath
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			c, _ := idx.Get(top.id)

			if top.next >= c.PrerequisiteCount() {
				state[top.id] = resolved
				stack = stack[:len(stack)-1]
				continue
			}

			prereq := c.Prerequisite(top.next)
			top.next++

			if !idx.Has(prereq) {
				// Already reported by the existence pass.
				continue
			}

			switch state[prereq] {
			case onPath:
				report(top.id, prereq)
			case unvisited:
				state[prereq] = onPath
				stack = append(stack, frame{id: prereq})
			}
		}
	}

	return problems
}
