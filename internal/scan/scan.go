// Package scan drives the per-repository pipeline: search each tree for
// the reference patterns of every name batch, resolve hit lines to
// target repositories, and fold the results into the edge aggregator.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crossmaphq/crossmap/internal/search"
	"github.com/crossmaphq/crossmap/pkg/graph"
	"github.com/crossmaphq/crossmap/pkg/logger"
	"github.com/crossmaphq/crossmap/pkg/match"
	"github.com/crossmaphq/crossmap/pkg/modalias"
	"github.com/crossmaphq/crossmap/pkg/relation"
)

// DefaultChunkSize is how many repository names share one search batch.
const DefaultChunkSize = 120

// Options configure a scan run.
type Options struct {
	Org       string
	ChunkSize int
	Workers   int
}

type batch struct {
	patterns   []string
	extractors []match.Extractor
}

// Runner holds the precompiled batches for a scan. Batches depend only on
// the known repository names, so they are built once and shared by every
// source repository.
type Runner struct {
	searcher search.Searcher
	agg      *graph.Aggregator
	known    map[string]struct{}
	batches  []batch
	workers  int
}

// New prepares a runner for the given known repositories and aliases.
func New(searcher search.Searcher, agg *graph.Aggregator, known map[string]struct{}, aliases modalias.Map, opts Options) (*Runner, error) {
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	sort.Strings(names)

	batches := make([]batch, 0, 1)
	for _, nameChunk := range chunk(names, opts.ChunkSize) {
		patterns := match.BuildPatterns(nameChunk, opts.Org, aliases)
		if len(patterns) == 0 {
			continue
		}
		extractors, err := match.BuildExtractors(nameChunk, opts.Org, aliases)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch{patterns: patterns, extractors: extractors})
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	return &Runner{
		searcher: searcher,
		agg:      agg,
		known:    known,
		batches:  batches,
		workers:  workers,
	}, nil
}

// Run scans every source repository. With workers > 1 repositories are
// scanned concurrently; the first failure cancels the rest.
func (r *Runner) Run(ctx context.Context, repoDirs []string) error {
	if len(r.batches) == 0 || len(repoDirs) == 0 {
		return nil
	}

	if r.workers == 1 {
		for _, dir := range repoDirs {
			if err := r.scanRepo(ctx, dir); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, dir := range repoDirs {
		dir := dir // per-iteration copy: required under go <1.22 loop semantics
		g.Go(func() error {
			return r.scanRepo(gctx, dir)
		})
	}
	return g.Wait()
}

// scanRepo searches one source repository with every batch and records
// the resolved references.
func (r *Runner) scanRepo(ctx context.Context, dir string) error {
	source := filepath.Base(dir)
	start := time.Now()
	hits := 0

	for _, b := range r.batches {
		matches, err := r.searcher.Search(ctx, dir, b.patterns)
		if err != nil {
			return fmt.Errorf("scan %s: %w", source, err)
		}

		for _, m := range matches {
			targets := match.Resolve(m.Text, b.extractors, r.known)
			if len(targets) == 0 {
				continue
			}
			rel := relation.Classify(m.Path)
			for _, t := range targets {
				r.agg.Add(graph.Hit{
					Source:       source,
					Target:       t.Repo,
					Owner:        t.Owner,
					File:         m.Path,
					Line:         m.Line,
					Text:         m.Text,
					RelationType: rel,
				})
				hits++
			}
		}
	}

	logger.Debug("repository scanned",
		logger.String("repo", source),
		logger.Int("hits", hits),
		logger.Duration("took", time.Since(start)))
	return nil
}

// chunk splits items into runs of at most size, preserving order.
func chunk(items []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var out [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[i:end])
	}
	return out
}
