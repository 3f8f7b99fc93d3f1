// Package modalias maps Go module paths back to repository short names.
// It bridges the common mismatch where a repository is cloned as
// "transform" but code references its module path
// "internal.example.net/transform".
package modalias

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/crossmaphq/crossmap/pkg/safeio"
)

// Map records, per repository short name, the set of module paths under
// which that repository may be referenced.
type Map map[string]map[string]struct{}

// Aliases returns the module paths recorded for repo, sorted. Returns nil
// when the repo has none.
func (m Map) Aliases(repo string) []string {
	set := m[repo]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for alias := range set {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

// Add records one module path for repo.
func (m Map) Add(repo, alias string) {
	set := m[repo]
	if set == nil {
		set = make(map[string]struct{})
		m[repo] = set
	}
	set[alias] = struct{}{}
}

var (
	moduleLineRe   = regexp.MustCompile(`^\s*module\s+(\S+)\s*$`)
	semverSuffixRe = regexp.MustCompile(`^v\d+$`)
)

// Collect walks every repository tree for go.mod files and attributes each
// declared module path to a known repository. A module path belongs to the
// repo named by its last path segment, or by the segment before a trailing
// major-version suffix ("example.com/pkg/repo/v2" maps to "repo").
// Unreadable files are skipped.
func Collect(repoDirs []string, knownNames map[string]struct{}) Map {
	aliases := make(Map)

	for _, repoDir := range repoDirs {
		_ = filepath.WalkDir(repoDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || d.Name() != "go.mod" {
				return nil
			}

			content, err := safeio.ReadFileContained(repoDir, path)
			if err != nil {
				return nil
			}
			modulePath := moduleLine(string(content))
			if modulePath == "" {
				return nil
			}

			if repo := attribute(modulePath, knownNames); repo != "" {
				aliases.Add(repo, modulePath)
			}
			return nil
		})
	}

	return aliases
}

// moduleLine returns the module path declared by the first module
// directive, or "" when none is present.
func moduleLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if m := moduleLineRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return ""
}

// attribute resolves the repository a module path belongs to, or "".
func attribute(modulePath string, knownNames map[string]struct{}) string {
	parts := make([]string, 0, 4)
	for _, part := range strings.Split(modulePath, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	last := parts[len(parts)-1]
	if _, ok := knownNames[last]; ok {
		return last
	}
	if len(parts) >= 2 && semverSuffixRe.MatchString(last) {
		prev := parts[len(parts)-2]
		if _, ok := knownNames[prev]; ok {
			return prev
		}
	}
	return ""
}
