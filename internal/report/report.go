// Package report renders the aggregated dependency map into its output
// artifacts (JSON, CSV, Mermaid, GraphML) and terminal summaries.
package report

import (
	"github.com/crossmaphq/crossmap/pkg/graph"
)

// Result is the complete dependency map produced by one scan run. It is
// the single source of truth: every other artifact is a projection of it.
type Result struct {
	ReposRoot string              `json:"repos_root"`
	Org       string              `json:"org,omitempty"`
	NodeCount int                 `json:"node_count"`
	EdgeCount int                 `json:"edge_count"`
	Nodes     []graph.Node        `json:"nodes"`
	Edges     []graph.EdgeSummary `json:"edges"`
}

// Build assembles a Result from discovered nodes and finalized edges.
// Nil slices become empty so the JSON artifact always carries arrays.
func Build(reposRoot, org string, nodes []graph.Node, edges []graph.EdgeSummary) *Result {
	if nodes == nil {
		nodes = []graph.Node{}
	}
	if edges == nil {
		edges = []graph.EdgeSummary{}
	}
	return &Result{
		ReposRoot: reposRoot,
		Org:       org,
		NodeCount: len(nodes),
		EdgeCount: len(edges),
		Nodes:     nodes,
		Edges:     edges,
	}
}
