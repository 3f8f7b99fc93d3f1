// Package search runs reference patterns over repository trees. Two
// backends implement the same contract: an external ripgrep invocation
// and a pure-Go fallback, so the scan pipeline never depends on which
// one is active.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/crossmaphq/crossmap/pkg/logger"
)

// Match is one line surviving the text search of a repository.
type Match struct {
	Path string // repo-relative, forward slashes
	Line int
	Text string
}

// Searcher runs a set of regex patterns over one repository tree and
// returns every matching line. Implementations must honor ctx
// cancellation and their configured per-repository timeout.
type Searcher interface {
	Search(ctx context.Context, dir string, patterns []string) ([]Match, error)
	Name() string
}

var defaultExcludedDirs = []string{
	".git",
	"node_modules",
	"dist",
	"build",
	"target",
	"venv",
	".venv",
}

// ExcludedDirs returns the built-in directory exclusions plus any extras,
// deduplicated, preserving order.
func ExcludedDirs(extra []string) []string {
	out := make([]string, 0, len(defaultExcludedDirs)+len(extra))
	seen := make(map[string]struct{})
	for _, d := range append(append([]string{}, defaultExcludedDirs...), extra...) {
		if d == "" {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Select picks the search backend. "ripgrep" requires rg to be present;
// "native" forces the built-in searcher; "auto" prefers rg and falls back
// to native when it is missing.
func Select(mode string, excludeDirs []string, timeout time.Duration) (Searcher, error) {
	switch mode {
	case "", "auto":
		rg, err := NewRipgrep(excludeDirs, timeout)
		if err != nil {
			logger.Info("rg not found, using native searcher", logger.Err(err))
			return NewNative(excludeDirs, timeout), nil
		}
		return rg, nil
	case "ripgrep":
		return NewRipgrep(excludeDirs, timeout)
	case "native":
		return NewNative(excludeDirs, timeout), nil
	default:
		return nil, fmt.Errorf("unknown searcher %q (want auto, ripgrep, or native)", mode)
	}
}
