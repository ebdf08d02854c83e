package model

import (
	"time"
)

// TreeFile is a NEXUS file whose trees were stored. Files are identified
// by the SHA-256 of their content, so storing the same file twice is a
// no-op.
type TreeFile struct {
	ID        int64     `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"` // source path or file name
	SHA256    string    `json:"sha256"    db:"sha256"`
	Trees     int       `json:"trees"     db:"-"` // number of tree records in the file
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TreeRecord is one stored tree. Newick holds the tree as written by
// phylotree.Tree.Newick; the nodes are stored separately.
type TreeRecord struct {
	ID         int64     `json:"id"         db:"id"`
	TreeFileID int64     `json:"treeFileId" db:"tree_file_id"`
	Index      int       `json:"index"      db:"idx"` // position in the file, 0-based
	Name       string    `json:"name"       db:"name"` // e.g., "STATE_1000"
	Newick     string    `json:"newick"     db:"newick"`
	Nodes      int       `json:"nodes"      db:"node_count"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}
