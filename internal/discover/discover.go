// Package discover finds the git repositories under a root directory and
// resolves each one's identity from its origin remote.
package discover

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"

	"github.com/crossmaphq/crossmap/pkg/graph"
	"github.com/crossmaphq/crossmap/pkg/logger"
	"github.com/crossmaphq/crossmap/pkg/reporef"
	"github.com/crossmaphq/crossmap/pkg/safeio"
)

// Repos returns the repository directories directly under root, sorted
// case-insensitively by name. A directory qualifies when it contains a
// .git directory; nested repositories are not discovered.
func Repos(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read repos root: %w", err)
	}

	dirs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		gitInfo, err := os.Stat(filepath.Join(dir, ".git"))
		if err != nil || !gitInfo.IsDir() {
			continue
		}
		dirs = append(dirs, dir)
	}

	sort.Slice(dirs, func(i, j int) bool {
		a := strings.ToLower(filepath.Base(dirs[i]))
		b := strings.ToLower(filepath.Base(dirs[j]))
		if a != b {
			return a < b
		}
		return filepath.Base(dirs[i]) < filepath.Base(dirs[j])
	})
	return dirs, nil
}

// LoadAllowedNames parses an allow-list file of repository references
// (one per line: URL, ssh remote, or owner/name) and returns the short
// names it permits. Unparsable lines are skipped.
func LoadAllowedNames(path string) (map[string]struct{}, error) {
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return nil, fmt.Errorf("repo list file: %w", err)
	}
	data, err := os.ReadFile(clean) // #nosec G304 -- cleaned above
	if err != nil {
		return nil, fmt.Errorf("read repo list file: %w", err)
	}

	allowed := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		if ref, ok := reporef.Parse(line); ok {
			allowed[ref.Name] = struct{}{}
		}
	}
	return allowed, nil
}

// FilterAllowed keeps only the directories whose base name appears in
// allowed. An empty allow-list disables filtering.
func FilterAllowed(dirs []string, allowed map[string]struct{}) []string {
	if len(allowed) == 0 {
		return dirs
	}
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if _, ok := allowed[filepath.Base(dir)]; ok {
			out = append(out, dir)
		}
	}
	return out
}

// FilterExcluded drops directories whose base name matches any of the
// given glob patterns. Invalid patterns are reported as errors.
func FilterExcluded(dirs []string, globs []string) ([]string, error) {
	for _, g := range globs {
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("invalid exclude pattern %q", g)
		}
	}
	if len(globs) == 0 {
		return dirs, nil
	}

	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		name := filepath.Base(dir)
		excluded := false
		for _, g := range globs {
			ok, err := doublestar.Match(g, name)
			if err != nil {
				return nil, fmt.Errorf("match exclude pattern %q: %w", g, err)
			}
			if ok {
				excluded = true
				break
			}
		}
		if excluded {
			logger.Debug("repository excluded by pattern", logger.String("repo", name))
			continue
		}
		out = append(out, dir)
	}
	return out, nil
}

// Nodes resolves the identity of each repository. Repositories without a
// readable origin remote keep empty FullName and Owner.
func Nodes(dirs []string) []graph.Node {
	nodes := make([]graph.Node, 0, len(dirs))
	for _, dir := range dirs {
		node := graph.Node{
			Name: filepath.Base(dir),
			Path: dir,
		}
		if url := originURL(dir); url != "" {
			if ref, ok := reporef.Parse(url); ok {
				node.FullName = ref.FullName()
				node.Owner = ref.Owner
			}
		}
		if node.FullName == "" {
			logger.Debug("no origin identity", logger.String("repo", node.Name))
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// originURL returns the repository's origin remote URL, or "" when the
// remote is absent or unreadable. go-git is tried first; environments
// with exotic repository layouts fall back to the git CLI.
func originURL(dir string) string {
	if repo, err := git.PlainOpen(dir); err == nil {
		if remote, err := repo.Remote(git.DefaultRemoteName); err == nil {
			if urls := remote.Config().URLs; len(urls) > 0 && urls[0] != "" {
				return urls[0]
			}
		}
	}
	return originURLFromCLI(dir)
}

func originURLFromCLI(dir string) string {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return ""
	}
	out, err := exec.Command(gitPath, "-C", dir, "remote", "get-url", "origin").Output() // #nosec G204 -- fixed argv, dir from discovery
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
