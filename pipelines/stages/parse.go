// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/nexus"
	"golang.org/x/sync/errgroup"
)

// ParseService parses the tree records of a file in parallel.
type ParseService struct {
	workers int
	logger  *slog.Logger
}

// NewParseService creates a new ParseService. If workers is less than 1,
// the number of CPUs is used.
func NewParseService(workers int, logger *slog.Logger) *ParseService {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &ParseService{workers: workers, logger: logger}
}

// Workers returns the number of records parsed at the same time.
func (p *ParseService) Workers() int {
	return p.workers
}

// ParseRecords parses every record and returns the trees in record
// order. The first failure cancels the remaining work and is returned
// as an *ErrParseRecord.
func (p *ParseService) ParseRecords(ctx context.Context, source string, records []nexus.Record) ([]*phylotree.Tree, error) {
	trees := make([]*phylotree.Tree, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tree, err := rec.Parse(
				phylotree.WithContext(ctx),
				phylotree.WithLogger(p.logger),
				phylotree.WithSourceName(source),
			)
			if err != nil {
				return &ErrParseRecord{Source: source, Index: i, Err: err}
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// ParseFile parses every tree of f and replaces translate-table tokens
// with taxon names.
func (p *ParseService) ParseFile(ctx context.Context, source string, f *nexus.File) ([]*phylotree.Tree, error) {
	trees, err := p.ParseRecords(ctx, source, f.Trees)
	if err != nil {
		return nil, err
	}
	for _, t := range trees {
		f.Translate(t)
	}
	if p.logger != nil {
		p.logger.Debug("parsed trees", "source", source, "trees", len(trees), "workers", p.workers)
	}
	return trees, nil
}
