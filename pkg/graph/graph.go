// Package graph holds the cross-repo dependency graph model: nodes for
// discovered repositories and aggregated, evidence-backed edges between
// them.
package graph

import (
	"github.com/crossmaphq/crossmap/pkg/relation"
)

// Node is one discovered repository.
type Node struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	FullName string `json:"full_name,omitempty"`
	Owner    string `json:"owner,omitempty"`
}

// Hit is a single resolved observation of one repository referencing
// another. Owner is empty when the surrounding text did not name one.
type Hit struct {
	Source       string
	Target       string
	Owner        string
	File         string
	Line         int
	Text         string
	RelationType relation.Type
}

// Evidence is one sampled raw-text location supporting an edge.
type Evidence struct {
	File         string        `json:"file"`
	Line         int           `json:"line"`
	RelationType relation.Type `json:"relation_type"`
	Snippet      string        `json:"snippet"`
}

// EdgeSummary is the finalized, report-ready form of an edge. Relation
// type counts marshal with sorted keys; owners are sorted; evidence keeps
// insertion order.
type EdgeSummary struct {
	Source                string         `json:"source"`
	Target                string         `json:"target"`
	Occurrences           int            `json:"occurrences"`
	DependencyOccurrences int            `json:"dependency_occurrences"`
	RelationTypeCounts    map[string]int `json:"relation_type_counts"`
	OwnersObserved        []string       `json:"owners_observed"`
	Evidence              []Evidence     `json:"evidence"`
}
