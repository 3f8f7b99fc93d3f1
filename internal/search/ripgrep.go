package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Ripgrep searches with an external rg process per repository. Exit code
// 1 (no matches) is success; anything above is a hard failure.
type Ripgrep struct {
	path     string
	excludes []string
	timeout  time.Duration
}

// NewRipgrep resolves the rg binary (honoring CROSSMAP_TOOL_RG) and
// returns a searcher excluding the given directory names.
func NewRipgrep(excludeDirs []string, timeout time.Duration) (*Ripgrep, error) {
	path, err := ResolveBinary("rg", EnvToolRG)
	if err != nil {
		return nil, err
	}
	return &Ripgrep{path: path, excludes: excludeDirs, timeout: timeout}, nil
}

// Name identifies the backend for logs and envinfo.
func (r *Ripgrep) Name() string { return "ripgrep" }

// Path returns the resolved rg binary location.
func (r *Ripgrep) Path() string { return r.path }

// args assembles the rg invocation: JSON events, line numbers, no
// filename grouping, smart case, hidden files included, one -g exclusion
// per directory, one -e per pattern, searching the working directory.
func (r *Ripgrep) args(patterns []string) []string {
	args := []string{"--json", "-n", "-I", "-S", "--hidden"}
	for _, dir := range r.excludes {
		args = append(args, "-g", "!"+dir)
	}
	for _, p := range patterns {
		args = append(args, "-e", p)
	}
	return append(args, ".")
}

// Search runs rg in dir and parses its JSON event stream.
func (r *Ripgrep) Search(ctx context.Context, dir string, patterns []string) ([]Match, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.path, r.args(patterns)...) // #nosec G204 -- binary resolved by ResolveBinary, args built above
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("rg in %s: %w", dir, ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil // no matches
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("rg failed in %s: %s: %w", dir, msg, err)
		}
		return nil, fmt.Errorf("rg failed in %s: %w", dir, err)
	}

	return parseRipgrepEvents(stdout.Bytes()), nil
}

// rg --json emits one JSON object per line; only "match" events carry
// hits.
type rgEvent struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		Lines struct {
			Text string `json:"text"`
		} `json:"lines"`
		LineNumber int `json:"line_number"`
	} `json:"data"`
}

// parseRipgrepEvents extracts matches from rg's JSON stream. Unparsable
// lines and non-match events are skipped.
func parseRipgrepEvents(out []byte) []Match {
	var matches []Match
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var ev rgEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		if ev.Type != "match" || ev.Data.Path.Text == "" {
			continue
		}
		matches = append(matches, Match{
			Path: normalizeRelPath(ev.Data.Path.Text),
			Line: ev.Data.LineNumber,
			Text: strings.TrimRight(ev.Data.Lines.Text, "\n"),
		})
	}
	return matches
}

// normalizeRelPath converts tool output to clean repo-relative form.
func normalizeRelPath(p string) string {
	p = filepath.ToSlash(p)
	return strings.TrimPrefix(p, "./")
}
