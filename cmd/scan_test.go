package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crossmaphq/crossmap/internal/report"
	"github.com/crossmaphq/crossmap/pkg/config"
	"github.com/crossmaphq/crossmap/pkg/graph"
)

func writeFixtureFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// scanFixture lays out three git clones that reference each other through a
// go.mod requirement, a workflow org shorthand, a module alias, and a plain
// doc mention. A bare .git directory is enough for discovery; identity
// resolution falls back to empty when the repository has no origin remote.
func scanFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, name := range []string{"a", "b", "c"} {
		if err := os.MkdirAll(filepath.Join(root, name, ".git"), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	writeFixtureFile(t, filepath.Join(root, "a"), "go.mod",
		"module example.com/a\n\nrequire github.com/acme/b v1.2.0\n")
	writeFixtureFile(t, filepath.Join(root, "a"), ".github/workflows/ci.yml",
		"uses: acme/c@v1\n")
	writeFixtureFile(t, filepath.Join(root, "a"), "README.md",
		"See internal.example.net/c for the shared helpers.\n")
	writeFixtureFile(t, filepath.Join(root, "b"), "docs.md",
		"Upstream lives at github.com/acme/a.\n")
	writeFixtureFile(t, filepath.Join(root, "c"), "go.mod",
		"module internal.example.net/c\n")

	return root
}

func runScanJSON(t *testing.T, args ...string) report.Result {
	t.Helper()
	out, err := execCommand(t, append([]string{"scan"}, args...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	var res report.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("summary is not valid JSON: %v\n%s", err, out)
	}
	return res
}

func findEdge(t *testing.T, res report.Result, source, target string) graph.EdgeSummary {
	t.Helper()
	for _, e := range res.Edges {
		if e.Source == source && e.Target == target {
			return e
		}
	}
	t.Fatalf("missing edge %s->%s in %+v", source, target, res.Edges)
	return graph.EdgeSummary{}
}

func TestScanCmd_EndToEnd(t *testing.T) {
	root := scanFixture(t)
	res := runScanJSON(t, root, "--org", "acme", "--searcher", "native", "--summary", "json")

	if res.ReposRoot != root {
		t.Errorf("repos_root = %q, want %q", res.ReposRoot, root)
	}
	if res.Org != "acme" {
		t.Errorf("org = %q, want acme", res.Org)
	}
	if res.NodeCount != 3 || res.EdgeCount != 3 {
		t.Fatalf("counts = %d nodes / %d edges, want 3 / 3", res.NodeCount, res.EdgeCount)
	}

	ab := findEdge(t, res, "a", "b")
	if ab.RelationTypeCounts["go_module"] != 1 || ab.DependencyOccurrences != 1 {
		t.Errorf("a->b = %+v, want one go_module dependency hit", ab)
	}
	if len(ab.OwnersObserved) != 1 || ab.OwnersObserved[0] != "acme" {
		t.Errorf("a->b owners = %v", ab.OwnersObserved)
	}
	if len(ab.Evidence) == 0 || ab.Evidence[0].File != "go.mod" {
		t.Errorf("a->b evidence = %+v", ab.Evidence)
	}

	ac := findEdge(t, res, "a", "c")
	if ac.Occurrences != 2 {
		t.Errorf("a->c occurrences = %d, want 2", ac.Occurrences)
	}
	if ac.RelationTypeCounts["github_action"] != 1 || ac.RelationTypeCounts["reference"] != 1 {
		t.Errorf("a->c relation counts = %v", ac.RelationTypeCounts)
	}
	if len(ac.OwnersObserved) != 1 || ac.OwnersObserved[0] != "acme" {
		t.Errorf("a->c owners = %v", ac.OwnersObserved)
	}

	ba := findEdge(t, res, "b", "a")
	if ba.RelationTypeCounts["reference"] != 1 {
		t.Errorf("b->a relation counts = %v", ba.RelationTypeCounts)
	}

	// Artifacts land under <root>/_dependency_map; GraphML stays off by default.
	outDir := filepath.Join(root, DefaultOutputDirName)
	for _, name := range []string{report.JSONFileName, report.CSVFileName, report.MermaidFileName} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("artifact %s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, report.GraphMLFileName)); !os.IsNotExist(err) {
		t.Errorf("GraphML must not be written without --graphml, stat err = %v", err)
	}
}

func TestScanCmd_MaxEvidencePerEdge(t *testing.T) {
	root := scanFixture(t)
	runScanJSON(t, root, "--org", "acme", "--searcher", "native", "--summary", "json",
		"--max-evidence-per-edge", "1")

	data, err := os.ReadFile(filepath.Join(root, DefaultOutputDirName, report.JSONFileName))
	if err != nil {
		t.Fatalf("read edges.json: %v", err)
	}
	var res report.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("edges.json is not valid JSON: %v", err)
	}
	for _, e := range res.Edges {
		if len(e.Evidence) > 1 {
			t.Errorf("edge %s->%s kept %d evidence entries, want at most 1", e.Source, e.Target, len(e.Evidence))
		}
	}
}

func TestScanCmd_GraphML(t *testing.T) {
	root := scanFixture(t)
	runScanJSON(t, root, "--searcher", "native", "--summary", "json", "--graphml")

	data, err := os.ReadFile(filepath.Join(root, DefaultOutputDirName, report.GraphMLFileName))
	if err != nil {
		t.Fatalf("read graphml artifact: %v", err)
	}
	if !strings.Contains(string(data), "<graphml") {
		t.Errorf("graphml artifact looks wrong:\n%s", data)
	}
}

func TestScanCmd_SummaryToFile(t *testing.T) {
	root := scanFixture(t)
	sumPath := filepath.Join(t.TempDir(), "summary.json")

	out, err := execCommand(t, "scan", root, "--searcher", "native", "--summary", "json",
		"--output", sumPath)
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "repos_root") {
		t.Error("summary must go to the file, not stdout")
	}

	data, err := os.ReadFile(sumPath)
	if err != nil {
		t.Fatalf("read summary file: %v", err)
	}
	var res report.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("summary file is not valid JSON: %v", err)
	}
	if res.NodeCount != 3 {
		t.Errorf("node_count = %d, want 3", res.NodeCount)
	}
}

func TestScanCmd_RepoList(t *testing.T) {
	root := scanFixture(t)
	listPath := filepath.Join(t.TempDir(), "repos.txt")
	if err := os.WriteFile(listPath, []byte("# tracked repos\nacme/a\nacme/b\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res := runScanJSON(t, root, "--org", "acme", "--searcher", "native", "--summary", "json",
		"--repo-list", listPath)

	if res.NodeCount != 2 {
		t.Fatalf("node_count = %d, want 2 (c filtered out)", res.NodeCount)
	}
	for _, e := range res.Edges {
		if e.Source == "c" || e.Target == "c" {
			t.Errorf("edge %s->%s references the filtered repo", e.Source, e.Target)
		}
	}
	findEdge(t, res, "a", "b")
	findEdge(t, res, "b", "a")
}

func TestScanCmd_ExcludeRepos(t *testing.T) {
	root := scanFixture(t)
	res := runScanJSON(t, root, "--org", "acme", "--searcher", "native", "--summary", "json",
		"--exclude-repos", "c")

	if res.NodeCount != 2 || res.EdgeCount != 2 {
		t.Errorf("counts = %d nodes / %d edges, want 2 / 2", res.NodeCount, res.EdgeCount)
	}
}

func TestScanCmd_MarkdownSummary(t *testing.T) {
	root := scanFixture(t)
	out, err := execCommand(t, "scan", root, "--org", "acme", "--searcher", "native",
		"--summary", "markdown")
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "# Cross-Repo Dependency Map") {
		t.Errorf("markdown summary missing title:\n%s", out)
	}
	if !strings.Contains(out, "Go Module (1)") {
		t.Errorf("markdown summary missing relation column:\n%s", out)
	}
}

func TestScanCmd_ConciseSummary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	root := scanFixture(t)
	out, err := execCommand(t, "scan", root, "--org", "acme", "--searcher", "native")
	if err != nil {
		t.Fatalf("scan failed: %v\n%s", err, out)
	}
	for _, want := range []string{"Repos analyzed: 3", "Edges found:    3", " - a -> c", " - a -> b"} {
		if !strings.Contains(out, want) {
			t.Errorf("concise summary missing %q:\n%s", want, out)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := newScanCommand()
	for name, value := range map[string]string{
		"org":                   "acme",
		"output-dir":            "/tmp/out",
		"max-evidence-per-edge": "2",
		"exclude-repos":         "vendor-*,archive",
		"workers":               "4",
		"searcher":              "native",
		"timeout":               "30s",
		"summary":               "markdown",
		"graphml":               "true",
	} {
		if err := cmd.Flags().Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	cfg := config.Default()
	applyFlagOverrides(cmd.Flags(), &cfg)

	if cfg.Org != "acme" || cfg.OutputDir != "/tmp/out" || cfg.MaxEvidencePerEdge != 2 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Scan.Workers != 4 || cfg.Scan.Searcher != "native" || cfg.Scan.Timeout.Seconds() != 30 {
		t.Errorf("scan overrides not applied: %+v", cfg.Scan)
	}
	if len(cfg.Scan.ExcludeRepos) != 2 {
		t.Errorf("exclude-repos = %v", cfg.Scan.ExcludeRepos)
	}
	if cfg.Report.Summary != "markdown" || !cfg.Report.GraphML {
		t.Errorf("report overrides not applied: %+v", cfg.Report)
	}
	// Untouched flags keep the configured values.
	if cfg.ChunkSize != config.Default().ChunkSize {
		t.Errorf("chunk size changed without a flag: %d", cfg.ChunkSize)
	}
}

func TestApplyFlagOverrides_NoFlags(t *testing.T) {
	cmd := newScanCommand()
	cfg := config.Default()
	cfg.Org = "from-config"

	applyFlagOverrides(cmd.Flags(), &cfg)
	if cfg.Org != "from-config" {
		t.Errorf("unset flags must not override config, org = %q", cfg.Org)
	}
}

func TestResolvePath(t *testing.T) {
	abs, err := resolvePath("some/relative/dir")
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if !filepath.IsAbs(abs) {
		t.Errorf("resolved path %q is not absolute", abs)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in this environment")
	}
	got, err := resolvePath("~/clones")
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if got != filepath.Join(home, "clones") {
		t.Errorf("resolvePath(~/clones) = %q, want %q", got, filepath.Join(home, "clones"))
	}

	got, err = resolvePath("~")
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if got != home {
		t.Errorf("resolvePath(~) = %q, want %q", got, home)
	}
}
