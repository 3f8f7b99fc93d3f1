package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Native is the pure-Go search backend used when rg is unavailable. It
// mirrors the rg invocation's behavior: hidden files are searched, the
// repository's .gitignore patterns are respected, the built-in directory
// exclusions always apply, and binary files are skipped.
type Native struct {
	excludeDirs []string
	timeout     time.Duration
}

// NewNative returns a native searcher excluding the given directory names.
func NewNative(excludeDirs []string, timeout time.Duration) *Native {
	return &Native{excludeDirs: excludeDirs, timeout: timeout}
}

// Name identifies the backend for logs and envinfo.
func (n *Native) Name() string { return "native" }

// Search compiles the patterns case-insensitively and walks the tree.
func (n *Native) Search(ctx context.Context, dir string, patterns []string) ([]Match, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile search pattern: %w", err)
		}
		res = append(res, re)
	}

	matcher := n.ignoreMatcher(dir)

	var matches []Match
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == dir {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")

		if d.IsDir() {
			if matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.Match(parts, false) {
			return nil
		}

		fileMatches, fileErr := searchFile(path, filepath.ToSlash(rel), res)
		if fileErr != nil {
			return nil // unreadable files are skipped, like rg
		}
		matches = append(matches, fileMatches...)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("native search in %s: %w", dir, walkErr)
	}
	return matches, nil
}

// ignoreMatcher folds the repository's .gitignore patterns with the
// built-in exclusions. Built-ins are appended last so they cannot be
// negated from inside the repository.
func (n *Native) ignoreMatcher(dir string) gitignore.Matcher {
	bfs := osfs.New(dir)
	patterns, err := gitignore.ReadPatterns(bfs, nil)
	if err != nil {
		patterns = nil
	}
	for _, name := range n.excludeDirs {
		patterns = append(patterns, gitignore.ParsePattern(name, nil))
	}
	return gitignore.NewMatcher(patterns)
}

// searchFile scans one regular file line by line. Files with a NUL byte
// in their first 8000 bytes are treated as binary and skipped.
func searchFile(path, rel string, res []*regexp.Regexp) ([]Match, error) {
	f, err := os.Open(path) // #nosec G304 -- path produced by the directory walk
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 8000)
	nread, err := f.Read(head)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if bytes.IndexByte(head[:nread], 0) >= 0 {
		return nil, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	var out []Match
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		for _, re := range res {
			if re.MatchString(line) {
				out = append(out, Match{Path: rel, Line: lineNo, Text: line})
				break
			}
		}
	}
	if scanner.Err() != nil {
		// Oversized or truncated tail; keep what was found.
		return out, nil
	}
	return out, nil
}
