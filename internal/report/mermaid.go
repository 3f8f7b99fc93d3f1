package report

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/crossmaphq/crossmap/pkg/graph"
)

var mermaidIDUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Mermaid renders the dependency map as a Mermaid flowchart. Nodes are
// sorted case-insensitively by name; edges keep their finalized order and
// carry relation type counts as the arrow label.
func Mermaid(result *Result) string {
	lines := []string{"graph LR"}

	nodes := make([]graph.Node, len(result.Nodes))
	copy(nodes, result.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
	for _, node := range nodes {
		lines = append(lines, fmt.Sprintf("  %s[\"%s\"]", sanitizeMermaidID(node.Name), node.Name))
	}

	if len(result.Edges) > 0 {
		for _, edge := range result.Edges {
			counts := edge.SortedRelationCounts()
			labels := make([]string, 0, len(counts))
			for _, rc := range counts {
				labels = append(labels, fmt.Sprintf("%s:%d", rc.Type, rc.Count))
			}
			lines = append(lines, fmt.Sprintf("  %s -->|%s| %s",
				sanitizeMermaidID(edge.Source), strings.Join(labels, ","), sanitizeMermaidID(edge.Target)))
		}
	} else {
		lines = append(lines, "  %% No cross-repo edges found")
	}

	return strings.Join(lines, "\n") + "\n"
}

// sanitizeMermaidID maps a repo name onto an identifier Mermaid accepts.
// Anything outside [A-Za-z0-9_] becomes "_"; empty or digit-leading
// results get an "r_" prefix.
func sanitizeMermaidID(name string) string {
	cleaned := mermaidIDUnsafe.ReplaceAllString(name, "_")
	if cleaned == "" || (cleaned[0] >= '0' && cleaned[0] <= '9') {
		cleaned = "r_" + cleaned
	}
	return cleaned
}
