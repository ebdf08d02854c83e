// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/model"
	"github.com/mdhender/phylotree/nexus"
	"github.com/spf13/afero"
)

// IngestService reads NEXUS files and stores their trees.
type IngestService struct {
	store  IngestStore
	parser *ParseService
	fs     afero.Fs
}

// IngestStore defines the store operations needed by IngestService.
type IngestStore interface {
	GetTreeFileBySHA256(ctx context.Context, sha256 string) (*model.TreeFile, error)
	InsertTreeFile(ctx context.Context, tf *model.TreeFile, recs []*model.TreeRecord, trees []*phylotree.Tree) (int64, error)
}

// NewIngestService creates a new IngestService. The store may be nil
// if only ReadFile and ParseFile are used.
func NewIngestService(store IngestStore, parser *ParseService) *IngestService {
	return &IngestService{
		store:  store,
		parser: parser,
		fs:     afero.NewOsFs(),
	}
}

// SetFS sets the filesystem for testing.
func (s *IngestService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// ReadFile reads and splits a NEXUS file. It returns the raw content too.
func (s *IngestService) ReadFile(path string) (*nexus.File, []byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, nil, &ErrReadFile{Op: "read", Path: path, Err: err}
	}
	f, err := nexus.Parse(data)
	if err != nil {
		return nil, nil, &ErrReadFile{Op: "parse", Path: path, Err: err}
	}
	return f, data, nil
}

// ParseFile reads a NEXUS file and parses all of its trees.
func (s *IngestService) ParseFile(ctx context.Context, path string) ([]*phylotree.Tree, error) {
	f, _, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseFile(ctx, path, f)
}

// IngestResult contains the result of an ingest operation.
type IngestResult struct {
	TreeFileID int64
	Trees      int
	Bytes      int
	Duplicate  bool // true if the file was already stored (idempotent no-op)
}

// IngestFile parses every tree of the file at path, labels its clades
// and stores it. A file whose content is already stored is not parsed
// again.
func (s *IngestService) IngestFile(ctx context.Context, path string) (*IngestResult, error) {
	f, data, err := s.ReadFile(path)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(data)
	hashStr := hex.EncodeToString(hash[:])

	existing, err := s.store.GetTreeFileBySHA256(ctx, hashStr)
	if err != nil {
		return nil, &ErrDatabase{Op: "check duplicate", Err: err}
	}
	if existing != nil {
		return &IngestResult{
			TreeFileID: existing.ID,
			Trees:      existing.Trees,
			Bytes:      len(data),
			Duplicate:  true,
		}, nil
	}

	trees, err := s.parser.ParseFile(ctx, path, f)
	if err != nil {
		return nil, err
	}

	tf := &model.TreeFile{
		Name:      path,
		SHA256:    hashStr,
		Trees:     len(trees),
		CreatedAt: time.Now().UTC(),
	}
	recs := make([]*model.TreeRecord, len(trees))
	for i, t := range trees {
		phylotree.LabelClades(t)
		recs[i] = &model.TreeRecord{
			Index:     i,
			Name:      f.Trees[i].Name,
			CreatedAt: tf.CreatedAt,
		}
	}
	// all or nothing: a partial file would be skipped as a duplicate
	fileID, err := s.store.InsertTreeFile(ctx, tf, recs, trees)
	if err != nil {
		return nil, &ErrDatabase{Op: "insert tree_file", Err: err}
	}

	return &IngestResult{
		TreeFileID: fileID,
		Trees:      len(trees),
		Bytes:      len(data),
	}, nil
}
