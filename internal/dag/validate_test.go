package dag

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/course"
)

// graph builds an index from {id, prereq...} rows, keeping row order.
func graph(t *testing.T, edges ...[]string) *catalog.Index {
	t.Helper()
	records := make([]course.Course, 0, len(edges))
	for _, e := range edges {
		records = append(records, course.MustNew(e[0], e[0]+" name", e[1:]...))
	}
	idx, err := catalog.Build(records)
	require.NoError(t, err)
	return idx
}

func TestValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		edges     [][]string
		wantValid bool
		want      []string
	}{
		{
			name:      "empty catalog",
			wantValid: true,
		},
		{
			name: "well formed dag",
			edges: [][]string{
				{"CS101"},
				{"MATH201"},
				{"CS200", "CS101"},
				{"CS300", "CS200", "MATH201"},
			},
			wantValid: true,
		},
		{
			name: "dangling reference",
			edges: [][]string{
				{"CS200"},
				{"CS300", "CS200", "CS999"},
			},
			want: []string{"CS300: prerequisite CS999 does not exist in the catalog"},
		},
		{
			name: "existence pass does not short circuit",
			edges: [][]string{
				{"A", "X1", "X2"},
				{"B", "X3"},
			},
			want: []string{
				"A: prerequisite X1 does not exist in the catalog",
				"A: prerequisite X2 does not exist in the catalog",
				"B: prerequisite X3 does not exist in the catalog",
			},
		},
		{
			name: "two course cycle",
			edges: [][]string{
				{"CS300", "CS200"},
				{"CS200", "CS300"},
			},
			want: []string{"circular dependency detected between CS200 and CS300"},
		},
		{
			name:  "self reference",
			edges: [][]string{{"CS101", "CS101"}},
			want:  []string{"circular dependency detected: CS101 lists itself as a prerequisite"},
		},
		{
			name: "missing references come before cycles",
			edges: [][]string{
				{"A", "B"},
				{"B", "A"},
				{"C", "NOPE"},
			},
			want: []string{
				"C: prerequisite NOPE does not exist in the catalog",
				"circular dependency detected between B and A",
			},
		},
		{
			name: "dangling edge inside a cycle is skipped by the cycle pass",
			edges: [][]string{
				{"A", "GHOST", "B"},
				{"B", "A"},
			},
			want: []string{
				"A: prerequisite GHOST does not exist in the catalog",
				"circular dependency detected between B and A",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			idx := graph(t, tc.edges...)

			// --- Act ---
			valid, problems := Validate(idx)

			// --- Assert ---
			assert.Equal(t, tc.wantValid, valid)
			assert.Equal(t, valid, len(problems) == 0)
			if diff := cmp.Diff(tc.want, problems, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("problems mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheck_StructuredProblems(t *testing.T) {
	t.Parallel()

	idx := graph(t,
		[]string{"A", "B"},
		[]string{"B", "C"},
		[]string{"C", "A", "MISSING"},
	)

	got := Check(idx)

	want := []Problem{
		{Kind: MissingPrerequisite, Course: "C", Prerequisite: "MISSING"},
		{Kind: Cycle, Course: "C", Prerequisite: "A"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Check() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "cycle", got[1].Kind.String())
}

func TestCheck_ReportsEachPairOnce(t *testing.T) {
	t.Parallel()

	// Two loops share B.
	idx := graph(t,
		[]string{"A", "B"},
		[]string{"B", "A", "C"},
		[]string{"C", "B"},
	)

	got := Check(idx)

	require.Len(t, got, 2)
	seen := map[[2]string]int{}
	for _, p := range got {
		require.Equal(t, Cycle, p.Kind)
		key := [2]string{min(p.Course, p.Prerequisite), max(p.Course, p.Prerequisite)}
		seen[key]++
	}
	assert.Equal(t, map[[2]string]int{{"A", "B"}: 1, {"B", "C"}: 1}, seen)
}

func TestValidate_DeepChainDoesNotRecurse(t *testing.T) {
	t.Parallel()

	const n = 50_000
	records := make([]course.Course, 0, n)
	for i := range n {
		var prereqs []string
		if i+1 < n {
			prereqs = []string{fmt.Sprintf("C%06d", i+1)}
		}
		records = append(records, course.MustNew(fmt.Sprintf("C%06d", i), "deep", prereqs...))
	}
	idx, err := catalog.Build(records)
	require.NoError(t, err)

	valid, problems := Validate(idx)

	assert.True(t, valid)
	assert.Empty(t, problems)
}

func TestValidate_MatchesCheckMessages(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	idx := graph(t,
		[]string{"A", "A", "B", "GHOST"},
		[]string{"B", "C", "A"},
		[]string{"C", "D"},
		[]string{"D", "B"},
	)

	// --- Act ---
	valid, messages := Validate(idx)
	structured := Check(idx)

	// --- Assert ---
	assert.False(t, valid)
	want := make([]string, 0, len(structured))
	for _, p := range structured {
		want = append(want, p.String())
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, MissingPrerequisite, structured[0].Kind)
	assert.Equal(t, "A: prerequisite GHOST does not exist in the catalog", messages[0])
}
