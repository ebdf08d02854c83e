// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/model"
)

var _ model.Store = (*SQLiteStore)(nil)

// InsertTreeFile inserts a tree_files row together with its trees, in a
// single transaction: either the file and every tree are stored or
// nothing is. recs[i] describes trees[i]. On success tf.ID, and the ID,
// TreeFileID and Nodes of every record, are set.
func (s *SQLiteStore) InsertTreeFile(ctx context.Context, tf *model.TreeFile, recs []*model.TreeRecord, trees []*phylotree.Tree) (int64, error) {
	if len(recs) != len(trees) {
		return 0, fmt.Errorf("insert tree_file: %d records for %d trees", len(recs), len(trees))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO tree_files (name, sha256, created_at)
		VALUES (?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		tf.Name,
		tf.SHA256,
		tf.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert tree_file: %w", err)
	}
	fileID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get tree_file id: %w", err)
	}

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		rec.TreeFileID = fileID
		if ids[i], err = insertTree(ctx, tx, rec, trees[i]); err != nil {
			return 0, fmt.Errorf("insert tree %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	tf.ID = fileID
	for i, rec := range recs {
		rec.ID = ids[i]
	}
	return fileID, nil
}

// GetTreeFileBySHA256 returns the file with the given content hash,
// or nil if there is none.
func (s *SQLiteStore) GetTreeFileBySHA256(ctx context.Context, sha256 string) (*model.TreeFile, error) {
	const query = `
		SELECT f.id, f.name, f.sha256, f.created_at,
		       (SELECT COUNT(*) FROM trees t WHERE t.tree_file_id = f.id)
		FROM tree_files f
		WHERE f.sha256 = ?
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, sha256)
	var tf model.TreeFile
	var createdAt string
	if err := row.Scan(
		&tf.ID,
		&tf.Name,
		&tf.SHA256,
		&createdAt,
		&tf.Trees,
	); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get tree_file by sha256: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		tf.CreatedAt = t
	}
	return &tf, nil
}

// insertTree stores rec together with one row per node of t and one row
// per annotation pair. It sets rec.Nodes; an empty rec.Newick is filled
// from t.
func insertTree(ctx context.Context, tx *sql.Tx, rec *model.TreeRecord, t *phylotree.Tree) (int64, error) {
	if rec.Newick == "" {
		rec.Newick = t.Newick()
	}
	rec.Nodes = t.Len()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	const treeQuery = `
		INSERT INTO trees (tree_file_id, idx, name, newick, node_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, treeQuery,
		rec.TreeFileID,
		rec.Index,
		rec.Name,
		rec.Newick,
		rec.Nodes,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert tree: %w", err)
	}
	treeID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get tree id: %w", err)
	}

	const nodeQuery = `
		INSERT INTO nodes (tree_id, node_id, parent_id, left_id, right_id, name, branch, has_annotation, clade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	const annotationQuery = `
		INSERT INTO annotations (tree_id, node_id, position, name, value)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, r := range t.Records() {
		var branch sql.NullFloat64
		if r.Branch != nil {
			branch = sql.NullFloat64{Float64: *r.Branch, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, nodeQuery,
			treeID,
			r.ID,
			nodeLink(r.Parent),
			nodeLink(r.Left),
			nodeLink(r.Right),
			r.Name,
			branch,
			boolToInt(r.Annotation != nil),
			r.Clade,
		); err != nil {
			return 0, fmt.Errorf("insert node %d: %w", r.ID, err)
		}
		for position, key := range r.Annotation.Keys() {
			value, _ := r.Annotation.Get(key)
			if _, err := tx.ExecContext(ctx, annotationQuery, treeID, r.ID, position, key, value); err != nil {
				return 0, fmt.Errorf("insert annotation %d/%s: %w", r.ID, key, err)
			}
		}
	}
	return treeID, nil
}

// LoadTree rebuilds a stored tree from its node and annotation rows.
func (s *SQLiteStore) LoadTree(ctx context.Context, id int64) (*phylotree.Tree, error) {
	const nodeQuery = `
		SELECT node_id, parent_id, left_id, right_id, name, branch, has_annotation, clade
		FROM nodes
		WHERE tree_id = ?
		ORDER BY node_id
	`
	rows, err := s.db.QueryContext(ctx, nodeQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query nodes: %w", err)
	}
	defer rows.Close()

	var records []phylotree.NodeRecord
	for rows.Next() {
		var r phylotree.NodeRecord
		var parent, left, right sql.NullInt64
		var branch sql.NullFloat64
		var hasAnnotation int
		if err := rows.Scan(&r.ID, &parent, &left, &right, &r.Name, &branch, &hasAnnotation, &r.Clade); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		r.Parent, r.Left, r.Right = linkID(parent), linkID(left), linkID(right)
		if branch.Valid {
			b := branch.Float64
			r.Branch = &b
		}
		if hasAnnotation != 0 {
			r.Annotation = phylotree.NewAnnotation()
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("tree %d: %w", id, sql.ErrNoRows)
	}

	const annotationQuery = `
		SELECT node_id, name, value
		FROM annotations
		WHERE tree_id = ?
		ORDER BY node_id, position
	`
	arows, err := s.db.QueryContext(ctx, annotationQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var nodeID int
		var key, value string
		if err := arows.Scan(&nodeID, &key, &value); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		// node ids are dense and records are ordered by node id
		if nodeID < 0 || nodeID >= len(records) || records[nodeID].Annotation == nil {
			return nil, fmt.Errorf("tree %d: annotation for unknown node %d", id, nodeID)
		}
		records[nodeID].Annotation.Set(key, value)
	}
	if err := arows.Err(); err != nil {
		return nil, err
	}

	t, err := phylotree.FromRecords(records)
	if err != nil {
		return nil, fmt.Errorf("tree %d: %w", id, err)
	}
	return t, nil
}

// ListTrees returns the trees of a file ordered by their index.
func (s *SQLiteStore) ListTrees(ctx context.Context, treeFileID int64) ([]model.TreeRecord, error) {
	const query = `
		SELECT id, tree_file_id, idx, name, newick, node_count, created_at
		FROM trees
		WHERE tree_file_id = ?
		ORDER BY idx
	`
	rows, err := s.db.QueryContext(ctx, query, treeFileID)
	if err != nil {
		return nil, fmt.Errorf("query trees: %w", err)
	}
	defer rows.Close()

	var trees []model.TreeRecord
	for rows.Next() {
		var rec model.TreeRecord
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.TreeFileID, &rec.Index, &rec.Name, &rec.Newick, &rec.Nodes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan tree: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			rec.CreatedAt = t
		}
		trees = append(trees, rec)
	}
	return trees, rows.Err()
}

func nodeLink(id int) sql.NullInt64 {
	if id == phylotree.NoNode {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(id), Valid: true}
}

func linkID(n sql.NullInt64) int {
	if !n.Valid {
		return phylotree.NoNode
	}
	return int(n.Int64)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
