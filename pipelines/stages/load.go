// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"fmt"
	"runtime"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/model"
	"github.com/mdhender/phylotree/nexus"
	"golang.org/x/sync/errgroup"
)

// LoadStore defines the store operations needed by LoadService.
type LoadStore interface {
	ListTrees(ctx context.Context, treeFileID int64) ([]model.TreeRecord, error)
	LoadTree(ctx context.Context, id int64) (*phylotree.Tree, error)
}

// LoadService reads back the trees of a stored file. Stored trees are
// already translated and carry their clade labels.
type LoadService struct {
	store   LoadStore
	workers int
}

// NewLoadService creates a new LoadService. If workers is less than 1,
// the number of CPUs is used.
func NewLoadService(store LoadStore, workers int) *LoadService {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &LoadService{store: store, workers: workers}
}

// LoadFile returns every tree of the stored file, in file order.
func (s *LoadService) LoadFile(ctx context.Context, treeFileID int64) ([]*phylotree.Tree, error) {
	recs, err := s.list(ctx, treeFileID)
	if err != nil {
		return nil, err
	}
	trees := make([]*phylotree.Tree, len(recs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, rec := range recs {
		i, rec := i, rec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := s.store.LoadTree(ctx, rec.ID)
			if err != nil {
				return &ErrDatabase{Op: fmt.Sprintf("load tree %d", rec.Index), Err: err}
			}
			trees[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// LoadTree returns tree index of the stored file. A negative index
// counts from the end, -1 being the last tree.
func (s *LoadService) LoadTree(ctx context.Context, treeFileID int64, index int) (*phylotree.Tree, error) {
	recs, err := s.list(ctx, treeFileID)
	if err != nil {
		return nil, err
	}
	i := index
	if i < 0 {
		i += len(recs)
	}
	if i < 0 || i >= len(recs) {
		return nil, fmt.Errorf("file %d: tree %d of %d: %w", treeFileID, index, len(recs), nexus.ErrIndexOutOfRange)
	}
	t, err := s.store.LoadTree(ctx, recs[i].ID)
	if err != nil {
		return nil, &ErrDatabase{Op: fmt.Sprintf("load tree %d", recs[i].Index), Err: err}
	}
	return t, nil
}

func (s *LoadService) list(ctx context.Context, treeFileID int64) ([]model.TreeRecord, error) {
	recs, err := s.store.ListTrees(ctx, treeFileID)
	if err != nil {
		return nil, &ErrDatabase{Op: "list trees", Err: err}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("file %d: %w", treeFileID, nexus.ErrNoTrees)
	}
	return recs, nil
}
