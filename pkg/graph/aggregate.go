package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/crossmaphq/crossmap/pkg/relation"
)

// DefaultMaxEvidencePerEdge caps how many raw-text samples each edge keeps.
const DefaultMaxEvidencePerEdge = 5

// maxSnippetLen bounds evidence snippets; longer lines are truncated with
// an ellipsis.
const maxSnippetLen = 220

type edgeKey struct {
	source string
	target string
}

type edgeAccum struct {
	occurrences    int
	relationCounts map[relation.Type]int
	owners         map[string]struct{}
	evidence       []Evidence
}

// Aggregator folds hits into one edge per (source, target) pair. It is
// safe for concurrent use.
type Aggregator struct {
	mu          sync.Mutex
	maxEvidence int
	edges       map[edgeKey]*edgeAccum
}

// NewAggregator returns an aggregator keeping at most maxEvidencePerEdge
// evidence entries per edge. Zero keeps counts only; negative values fall
// back to the default.
func NewAggregator(maxEvidencePerEdge int) *Aggregator {
	if maxEvidencePerEdge < 0 {
		maxEvidencePerEdge = DefaultMaxEvidencePerEdge
	}
	return &Aggregator{
		maxEvidence: maxEvidencePerEdge,
		edges:       make(map[edgeKey]*edgeAccum),
	}
}

// Add records one hit. Self-references are dropped. Every accepted hit
// increments the edge's occurrence count and its relation type count;
// evidence is sampled up to the configured cap.
func (a *Aggregator) Add(hit Hit) {
	if hit.Source == hit.Target {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := edgeKey{source: hit.Source, target: hit.Target}
	e, ok := a.edges[key]
	if !ok {
		e = &edgeAccum{
			relationCounts: make(map[relation.Type]int),
			owners:         make(map[string]struct{}),
		}
		a.edges[key] = e
	}

	e.occurrences++
	e.relationCounts[hit.RelationType]++
	if hit.Owner != "" {
		e.owners[hit.Owner] = struct{}{}
	}
	if len(e.evidence) < a.maxEvidence {
		e.evidence = append(e.evidence, Evidence{
			File:         hit.File,
			Line:         hit.Line,
			RelationType: hit.RelationType,
			Snippet:      snippet(hit.Text),
		})
	}
}

// Len returns the number of distinct edges recorded so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.edges)
}

// Finalize returns the aggregated edges sorted by (source, target).
func (a *Aggregator) Finalize() []EdgeSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]EdgeSummary, 0, len(a.edges))
	for key, e := range a.edges {
		owners := make([]string, 0, len(e.owners))
		for o := range e.owners {
			owners = append(owners, o)
		}
		sort.Strings(owners)

		counts := make(map[string]int, len(e.relationCounts))
		depOccurrences := 0
		for t, c := range e.relationCounts {
			counts[string(t)] = c
			if relation.IsDependency(t) {
				depOccurrences += c
			}
		}

		evidence := make([]Evidence, 0, len(e.evidence))
		evidence = append(evidence, e.evidence...)

		out = append(out, EdgeSummary{
			Source:                key.source,
			Target:                key.target,
			Occurrences:           e.occurrences,
			DependencyOccurrences: depOccurrences,
			RelationTypeCounts:    counts,
			OwnersObserved:        owners,
			Evidence:              evidence,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Target < out[j].Target
	})
	return out
}

// snippet trims surrounding whitespace and truncates long lines. Bounds
// are measured in runes so multi-byte text is never split mid-character.
func snippet(text string) string {
	s := strings.TrimSpace(text)
	runes := []rune(s)
	if len(runes) > maxSnippetLen {
		return string(runes[:maxSnippetLen-3]) + "..."
	}
	return s
}

// SortedRelationCounts returns the edge's relation type counts as ordered
// key/count pairs for renderers that need deterministic iteration.
func (e EdgeSummary) SortedRelationCounts() []RelationCount {
	keys := make([]string, 0, len(e.RelationTypeCounts))
	for k := range e.RelationTypeCounts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]RelationCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, RelationCount{Type: k, Count: e.RelationTypeCounts[k]})
	}
	return out
}

// RelationCount is one relation type with its occurrence count.
type RelationCount struct {
	Type  string
	Count int
}
