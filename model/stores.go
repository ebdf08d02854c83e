// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package model

import (
	"context"

	"github.com/mdhender/phylotree"
)

// Store is an interface for persisting trees.
type Store interface {
	// InsertTreeFile stores a file and all of its trees atomically.
	InsertTreeFile(ctx context.Context, tf *TreeFile, recs []*TreeRecord, trees []*phylotree.Tree) (int64, error)
	GetTreeFileBySHA256(ctx context.Context, sha256 string) (*TreeFile, error)

	LoadTree(ctx context.Context, id int64) (*phylotree.Tree, error)
	ListTrees(ctx context.Context, treeFileID int64) ([]TreeRecord, error)

	TableStats(ctx context.Context) (Stats, error)
}

// Stats holds store statistics.
type Stats struct {
	TreeFiles   int
	Trees       int
	Nodes       int
	Annotations int
}
