package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crossmaphq/crossmap/pkg/graph"
)

// OutputFormat represents the format for the scan summary
type OutputFormat string

const (
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatHTML     OutputFormat = "html"
	// Concise is a short, colorized summary ideal for terminal use
	FormatConcise OutputFormat = "concise"
)

// maxConciseEdges caps the edge listing in the concise summary; the JSON
// artifact remains the full record.
const maxConciseEdges = 10

// ParseFormat validates a user-supplied summary format name.
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case FormatConcise:
		return FormatConcise, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown summary format: %q (expected concise, markdown, html, or json)", name)
	}
}

// Formatter handles formatting scan summaries
type Formatter struct {
	format OutputFormat
}

// NewFormatter creates a new summary formatter
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// FormatSummary formats a scan result according to the configured format
func (f *Formatter) FormatSummary(result *Result, paths Paths) (string, error) {
	switch f.format {
	case FormatConcise:
		return f.formatConcise(result, paths), nil
	case FormatMarkdown:
		return f.formatMarkdown(result, paths), nil
	case FormatHTML:
		return f.formatHTML(result), nil
	case FormatJSON:
		return f.formatJSON(result)
	default:
		return "", fmt.Errorf("unsupported format: %s", f.format)
	}
}

// formatConcise prints a short, colorized summary suitable for terminal use
func (f *Formatter) formatConcise(result *Result, paths Paths) string {
	color := func(code string, s string) string {
		if os.Getenv("NO_COLOR") != "" {
			return s
		}
		return "\x1b[" + code + "m" + s + "\x1b[0m"
	}
	bold := func(s string) string { return color("1", s) }
	green := func(s string) string { return color("32", s) }
	yellow := func(s string) string { return color("33", s) }

	var sb strings.Builder

	fmt.Fprintf(&sb, "Repos analyzed: %d\n", result.NodeCount)
	fmt.Fprintf(&sb, "Edges found:    %d\n", result.EdgeCount)
	fmt.Fprintf(&sb, "JSON:           %s\n", paths.JSON)
	fmt.Fprintf(&sb, "CSV:            %s\n", paths.CSV)
	fmt.Fprintf(&sb, "Mermaid:        %s\n", paths.Mermaid)
	if paths.GraphML != "" {
		fmt.Fprintf(&sb, "GraphML:        %s\n", paths.GraphML)
	}

	if len(result.Edges) == 0 {
		fmt.Fprintf(&sb, "%s\n", yellow("No cross-repo references detected."))
		return sb.String()
	}

	top := topEdges(result.Edges, maxConciseEdges)

	// Align counts on display width so multi-byte repo names line up
	width := 0
	for _, edge := range top {
		if w := runewidth.StringWidth(edge.Source + " -> " + edge.Target); w > width {
			width = w
		}
	}

	fmt.Fprintf(&sb, "%s\n", bold("Top edges"))
	for _, edge := range top {
		label := edge.Source + " -> " + edge.Target
		pad := strings.Repeat(" ", width-runewidth.StringWidth(label))

		var countStr string
		if edge.DependencyOccurrences > 0 {
			countStr = green(fmt.Sprintf("%d hit(s), %d dependency", edge.Occurrences, edge.DependencyOccurrences))
		} else {
			countStr = yellow(fmt.Sprintf("%d hit(s)", edge.Occurrences))
		}
		fmt.Fprintf(&sb, " - %s%s  %s\n", label, pad, countStr)
	}
	if len(result.Edges) > len(top) {
		fmt.Fprintf(&sb, " - ... and %d more (see %s)\n", len(result.Edges)-len(top), paths.JSON)
	}

	return sb.String()
}

// formatMarkdown creates a markdown-formatted dependency map summary
func (f *Formatter) formatMarkdown(result *Result, paths Paths) string {
	var sb strings.Builder

	sb.WriteString("# Cross-Repo Dependency Map\n\n")
	fmt.Fprintf(&sb, "**Repos Root:** %s\n", result.ReposRoot)
	if result.Org != "" {
		fmt.Fprintf(&sb, "**Organization:** %s\n", result.Org)
	}
	fmt.Fprintf(&sb, "**Repos Analyzed:** %d\n", result.NodeCount)
	fmt.Fprintf(&sb, "**Edges Found:** %d\n\n", result.EdgeCount)

	sb.WriteString("## Edges\n\n")
	if len(result.Edges) == 0 {
		sb.WriteString("No cross-repo references detected.\n")
		return sb.String()
	}

	sb.WriteString("| Source | Target | Occurrences | Dependency | Relation Types |\n")
	sb.WriteString("|--------|--------|-------------|------------|----------------|\n")

	c := cases.Title(language.Und)
	for _, edge := range result.Edges {
		counts := edge.SortedRelationCounts()
		labels := make([]string, 0, len(counts))
		for _, rc := range counts {
			labels = append(labels, fmt.Sprintf("%s (%d)", c.String(strings.ReplaceAll(rc.Type, "_", " ")), rc.Count))
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %s |\n",
			edge.Source, edge.Target, edge.Occurrences, edge.DependencyOccurrences, strings.Join(labels, ", "))
	}

	sb.WriteString("\n## Artifacts\n\n")
	fmt.Fprintf(&sb, "- JSON: `%s`\n", paths.JSON)
	fmt.Fprintf(&sb, "- CSV: `%s`\n", paths.CSV)
	fmt.Fprintf(&sb, "- Mermaid: `%s`\n", paths.Mermaid)
	if paths.GraphML != "" {
		fmt.Fprintf(&sb, "- GraphML: `%s`\n", paths.GraphML)
	}

	return sb.String()
}

// formatJSON renders the result itself; the summary and the edges.json
// artifact share one schema.
func (f *Formatter) formatJSON(result *Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	return string(data) + "\n", nil
}

// templateEdge is one edge row handed to the HTML template.
type templateEdge struct {
	Source          string
	Target          string
	Occurrences     int
	Dependencies    int
	HasDependencies bool
	Relations       string
}

// templateData is the root context for the HTML template.
type templateData struct {
	ReposRoot string
	Org       string
	NodeCount int
	EdgeCount int
	Edges     []templateEdge
}

// formatHTML creates an HTML-formatted dependency map report using
// Handlebars templates
func (f *Formatter) formatHTML(result *Result) string {
	edges := make([]templateEdge, 0, len(result.Edges))
	for _, edge := range result.Edges {
		counts := edge.SortedRelationCounts()
		labels := make([]string, 0, len(counts))
		for _, rc := range counts {
			labels = append(labels, fmt.Sprintf("%s:%d", rc.Type, rc.Count))
		}
		edges = append(edges, templateEdge{
			Source:          edge.Source,
			Target:          edge.Target,
			Occurrences:     edge.Occurrences,
			Dependencies:    edge.DependencyOccurrences,
			HasDependencies: edge.DependencyOccurrences > 0,
			Relations:       strings.Join(labels, ", "),
		})
	}

	data := templateData{
		ReposRoot: result.ReposRoot,
		Org:       result.Org,
		NodeCount: result.NodeCount,
		EdgeCount: result.EdgeCount,
		Edges:     edges,
	}

	// Allow explicit override via environment variable
	if envPath := os.Getenv("CROSSMAP_TEMPLATE_PATH"); strings.TrimSpace(envPath) != "" {
		envPath = filepath.Clean(envPath)
		if content, err := os.ReadFile(envPath); err == nil { // #nosec G304 - path from CROSSMAP_TEMPLATE_PATH env var, filepath.Clean applied above
			return renderHandlebars(string(content), data)
		}
	}

	return renderHandlebars(htmlTemplate, data)
}

var registerHelpersOnce sync.Once

// renderHandlebars renders a Handlebars template string with helpers registered
func renderHandlebars(tpl string, data interface{}) string {
	// Register helper functions once; raymond panics on re-registration
	registerHelpersOnce.Do(func() {
		raymond.RegisterHelper("gt", func(a, b interface{}) bool {
			aVal, _ := strconv.Atoi(fmt.Sprintf("%v", a))
			bVal, _ := strconv.Atoi(fmt.Sprintf("%v", b))
			return aVal > bVal
		})
	})
	out, err := raymond.Render(tpl, data)
	if err != nil {
		return fmt.Sprintf("Error rendering template: %v", err)
	}
	return out
}

// topEdges returns up to limit edges ordered by occurrences descending,
// breaking ties by source then target.
func topEdges(edges []graph.EdgeSummary, limit int) []graph.EdgeSummary {
	sorted := make([]graph.EdgeSummary, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Occurrences != sorted[j].Occurrences {
			return sorted[i].Occurrences > sorted[j].Occurrences
		}
		if sorted[i].Source != sorted[j].Source {
			return sorted[i].Source < sorted[j].Source
		}
		return sorted[i].Target < sorted[j].Target
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Cross-Repo Dependency Map</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #1f2328; }
  h1 { border-bottom: 2px solid #d0d7de; padding-bottom: .3rem; }
  table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
  th, td { border: 1px solid #d0d7de; padding: .4rem .6rem; text-align: left; }
  th { background: #f6f8fa; }
  tr:nth-child(even) { background: #fafbfc; }
  .meta { color: #57606a; }
  .dep { color: #1a7f37; font-weight: 600; }
</style>
</head>
<body>
<h1>Cross-Repo Dependency Map</h1>
<p class="meta">Root: {{ReposRoot}}{{#if Org}} &middot; Org: {{Org}}{{/if}} &middot; Repos: {{NodeCount}} &middot; Edges: {{EdgeCount}}</p>
{{#if EdgeCount}}
<table>
<thead><tr><th>Source</th><th>Target</th><th>Occurrences</th><th>Dependency</th><th>Relation Types</th></tr></thead>
<tbody>
{{#each Edges}}
<tr><td>{{Source}}</td><td>{{Target}}</td><td>{{Occurrences}}</td><td>{{#if HasDependencies}}<span class="dep">{{Dependencies}}</span>{{else}}0{{/if}}</td><td>{{Relations}}</td></tr>
{{/each}}
</tbody>
</table>
{{else}}
<p>No cross-repo edges found.</p>
{{/if}}
</body>
</html>
`
