package discover

import (
	"os"
	"path/filepath"
	"testing"
)

// makeRepo creates a directory with enough .git structure for go-git to
// open it and read its remote configuration.
func makeRepo(t *testing.T, root, name, originURL string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	gitDir := filepath.Join(dir, ".git")
	for _, sub := range []string{"objects", "refs"} {
		if err := os.MkdirAll(filepath.Join(gitDir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	config := "[core]\n\trepositoryformatversion = 0\n"
	if originURL != "" {
		config += "[remote \"origin\"]\n\turl = " + originURL + "\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	}
	if err := os.WriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestReposDiscoversOnlyGitDirs(t *testing.T) {
	root := t.TempDir()
	makeRepo(t, root, "beta", "")
	makeRepo(t, root, "Alpha", "")
	makeRepo(t, root, "gamma", "")

	// Not repositories: plain dir, dir with .git file, regular file.
	if err := os.MkdirAll(filepath.Join(root, "notarepo"), 0o755); err != nil {
		t.Fatal(err)
	}
	wt := filepath.Join(root, "worktree-link")
	if err := os.MkdirAll(wt, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: elsewhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := Repos(root)
	if err != nil {
		t.Fatalf("Repos failed: %v", err)
	}

	var names []string
	for _, d := range dirs {
		names = append(names, filepath.Base(d))
	}
	want := []string{"Alpha", "beta", "gamma"}
	if len(names) != len(want) {
		t.Fatalf("repos = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("repos[%d] = %q, want %q (case-insensitive order)", i, names[i], want[i])
		}
	}
}

func TestReposMissingRoot(t *testing.T) {
	if _, err := Repos(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Repos on missing root must fail")
	}
}

func TestLoadAllowedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repos.txt")
	content := `# production repos
acme/transform
https://github.com/acme/libfoo.git
git@github.com:acme/tooling.git

not a reference at all
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	allowed, err := LoadAllowedNames(path)
	if err != nil {
		t.Fatalf("LoadAllowedNames failed: %v", err)
	}

	for _, name := range []string{"transform", "libfoo", "tooling"} {
		if _, ok := allowed[name]; !ok {
			t.Errorf("allowed missing %q: %v", name, allowed)
		}
	}
	if len(allowed) != 3 {
		t.Errorf("allowed = %v, want 3 entries", allowed)
	}
}

func TestFilterAllowed(t *testing.T) {
	dirs := []string{"/r/alpha", "/r/beta", "/r/gamma"}

	got := FilterAllowed(dirs, map[string]struct{}{"beta": {}})
	if len(got) != 1 || filepath.Base(got[0]) != "beta" {
		t.Errorf("FilterAllowed = %v", got)
	}

	// Empty allow-list leaves the set untouched.
	got = FilterAllowed(dirs, nil)
	if len(got) != 3 {
		t.Errorf("FilterAllowed with empty list = %v", got)
	}
}

func TestFilterExcluded(t *testing.T) {
	dirs := []string{"/r/service-a", "/r/service-b", "/r/archived-junk", "/r/tool"}

	got, err := FilterExcluded(dirs, []string{"archived-*", "service-b"})
	if err != nil {
		t.Fatalf("FilterExcluded failed: %v", err)
	}
	var names []string
	for _, d := range got {
		names = append(names, filepath.Base(d))
	}
	if len(names) != 2 || names[0] != "service-a" || names[1] != "tool" {
		t.Errorf("FilterExcluded = %v", names)
	}

	if _, err := FilterExcluded(dirs, []string{"[broken"}); err == nil {
		t.Error("invalid glob must fail")
	}
}

func TestNodes(t *testing.T) {
	root := t.TempDir()
	withRemote := makeRepo(t, root, "transform", "https://github.com/acme/transform.git")
	without := makeRepo(t, root, "local-only", "")

	nodes := Nodes([]string{withRemote, without})
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}

	if nodes[0].Name != "transform" || nodes[0].FullName != "acme/transform" || nodes[0].Owner != "acme" {
		t.Errorf("node with remote = %+v", nodes[0])
	}
	if nodes[0].Path != withRemote {
		t.Errorf("node path = %q, want %q", nodes[0].Path, withRemote)
	}
	if nodes[1].FullName != "" || nodes[1].Owner != "" {
		t.Errorf("node without remote = %+v", nodes[1])
	}
}

func TestNodesSSHRemote(t *testing.T) {
	root := t.TempDir()
	dir := makeRepo(t, root, "tooling", "git@github.com:acme/tooling.git")

	nodes := Nodes([]string{dir})
	if nodes[0].FullName != "acme/tooling" || nodes[0].Owner != "acme" {
		t.Errorf("node = %+v", nodes[0])
	}
}
