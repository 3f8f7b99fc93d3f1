package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/crossmaphq/crossmap/pkg/graph"
	"github.com/crossmaphq/crossmap/pkg/safeio"
)

// Output file names inside the output directory.
const (
	JSONFileName    = "edges.json"
	CSVFileName     = "edges.csv"
	MermaidFileName = "dependency-map.mmd"
	GraphMLFileName = "dependency-map.graphml"
)

// Paths lists where WriteFiles placed each artifact. GraphML is empty
// unless that artifact was requested.
type Paths struct {
	JSON    string
	CSV     string
	Mermaid string
	GraphML string
}

// WriteFiles renders the result into outputDir, creating the directory
// if needed, and returns the artifact locations.
func WriteFiles(result *Result, outputDir string, graphML bool) (Paths, error) {
	if err := safeio.EnsureDir(outputDir); err != nil {
		return Paths{}, fmt.Errorf("failed to create output dir: %w", err)
	}

	var paths Paths

	paths.JSON = filepath.Join(outputDir, JSONFileName)
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return Paths{}, fmt.Errorf("failed to encode %s: %w", JSONFileName, err)
	}
	if err := safeio.WriteFilePreservePerms(paths.JSON, append(jsonData, '\n')); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", JSONFileName, err)
	}

	paths.CSV = filepath.Join(outputDir, CSVFileName)
	csvData, err := renderCSV(result.Edges)
	if err != nil {
		return Paths{}, fmt.Errorf("failed to encode %s: %w", CSVFileName, err)
	}
	if err := safeio.WriteFilePreservePerms(paths.CSV, csvData); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", CSVFileName, err)
	}

	paths.Mermaid = filepath.Join(outputDir, MermaidFileName)
	if err := safeio.WriteFilePreservePerms(paths.Mermaid, []byte(Mermaid(result))); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", MermaidFileName, err)
	}

	if graphML {
		paths.GraphML = filepath.Join(outputDir, GraphMLFileName)
		xmlData, err := GraphML(result)
		if err != nil {
			return Paths{}, fmt.Errorf("failed to encode %s: %w", GraphMLFileName, err)
		}
		if err := safeio.WriteFilePreservePerms(paths.GraphML, xmlData); err != nil {
			return Paths{}, fmt.Errorf("failed to write %s: %w", GraphMLFileName, err)
		}
	}

	return paths, nil
}

// renderCSV produces the flat edge listing. Relation type counts join as
// "type:count" pairs; evidence files are deduplicated and sorted.
func renderCSV(edges []graph.EdgeSummary) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"source", "target", "occurrences", "dependency_occurrences", "relation_types", "evidence_files"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, edge := range edges {
		counts := edge.SortedRelationCounts()
		types := make([]string, 0, len(counts))
		for _, rc := range counts {
			types = append(types, fmt.Sprintf("%s:%d", rc.Type, rc.Count))
		}

		seen := make(map[string]struct{}, len(edge.Evidence))
		files := make([]string, 0, len(edge.Evidence))
		for _, ev := range edge.Evidence {
			if _, ok := seen[ev.File]; ok {
				continue
			}
			seen[ev.File] = struct{}{}
			files = append(files, ev.File)
		}
		sort.Strings(files)

		record := []string{
			edge.Source,
			edge.Target,
			strconv.Itoa(edge.Occurrences),
			strconv.Itoa(edge.DependencyOccurrences),
			strings.Join(types, ";"),
			strings.Join(files, ";"),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
