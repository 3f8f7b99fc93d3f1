package report

import (
	"strings"
	"testing"

	"github.com/crossmaphq/crossmap/pkg/graph"
)

func TestMermaidRendersNodesAndEdges(t *testing.T) {
	result := Build("/repos", "", []graph.Node{
		{Name: "beta", Path: "/repos/beta"},
		{Name: "Alpha", Path: "/repos/Alpha"},
		{Name: "9lives", Path: "/repos/9lives"},
		{Name: "my repo", Path: "/repos/my repo"},
	}, []graph.EdgeSummary{
		{
			Source:             "Alpha",
			Target:             "beta",
			Occurrences:        3,
			RelationTypeCounts: map[string]int{"reference": 1, "go_module": 2},
		},
	})

	got := Mermaid(result)
	want := strings.Join([]string{
		"graph LR",
		`  r_9lives["9lives"]`,
		`  Alpha["Alpha"]`,
		`  beta["beta"]`,
		`  my_repo["my repo"]`,
		"  Alpha -->|go_module:2,reference:1| beta",
	}, "\n") + "\n"

	if got != want {
		t.Errorf("mermaid mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestMermaidNoEdges(t *testing.T) {
	result := Build("/repos", "", []graph.Node{{Name: "solo", Path: "/repos/solo"}}, nil)

	got := Mermaid(result)
	if !strings.Contains(got, "  %% No cross-repo edges found") {
		t.Errorf("expected empty-edge marker, got:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("mermaid output should end with a newline")
	}
}

func TestSanitizeMermaidID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "alpha", "alpha"},
		{"hyphen", "repo-name", "repo_name"},
		{"dots and slashes", "a.b/c", "a_b_c"},
		{"digit leading", "9lives", "r_9lives"},
		{"empty", "", "r_"},
		{"underscore kept", "good_name", "good_name"},
		{"unicode", "répo", "r_po"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeMermaidID(tt.in); got != tt.want {
				t.Errorf("sanitizeMermaidID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
