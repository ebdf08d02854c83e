// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/nexus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// TemplatePlaceholder is replaced by each item when expanding a file
// name template.
const TemplatePlaceholder = "{}"

// CombineService merges one annotation across the trees of a set of
// runs that share a topology.
type CombineService struct {
	fs      afero.Fs
	workers int
	logger  *slog.Logger
}

// NewCombineService creates a new CombineService.
func NewCombineService(parser *ParseService) *CombineService {
	return &CombineService{
		fs:      afero.NewOsFs(),
		workers: parser.workers,
		logger:  parser.logger,
	}
}

// SetFS sets the filesystem for testing.
func (s *CombineService) SetFS(fs afero.Fs) {
	s.fs = fs
}

// CombineRequest contains the parameters for combining runs.
type CombineRequest struct {
	Template string   // e.g., "runs/{}.trees"
	Items    []string // substituted for {} in Template
	Tag      string   // annotation key, with or without "&"
	Index    int      // tree to use from each file, -1 for the last
}

// ExpandTemplate replaces every {} in template with item.
func ExpandTemplate(template, item string) string {
	return strings.ReplaceAll(template, TemplatePlaceholder, item)
}

// ReadItems reads one item per line, dropping trailing white space and
// blank lines.
func (s *CombineService) ReadItems(path string) ([]string, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &ErrReadFile{Op: "read", Path: path, Err: err}
	}
	var items []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if item := strings.TrimRight(scanner.Text(), " \t\r"); item != "" {
			items = append(items, item)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ErrReadFile{Op: "read", Path: path, Err: err}
	}
	return items, nil
}

// LoadTree reads tree index of the NEXUS file at path and replaces
// translate-table tokens with taxon names.
func (s *CombineService) LoadTree(ctx context.Context, path string, index int) (*phylotree.Tree, error) {
	f, err := nexus.ReadFile(s.fs, path)
	if err != nil {
		return nil, &ErrReadFile{Op: "read", Path: path, Err: err}
	}
	rec, err := f.Tree(index)
	if err != nil {
		return nil, &ErrReadFile{Op: "select tree", Path: path, Err: err}
	}
	tree, err := rec.Parse(
		phylotree.WithContext(ctx),
		phylotree.WithLogger(s.logger),
		phylotree.WithSourceName(path),
	)
	if err != nil {
		return nil, &ErrParseRecord{Source: path, Index: index, Err: err}
	}
	f.Translate(tree)
	return tree, nil
}

// Combine loads one tree per item and merges the tag across them. The
// result is the tree of the first item.
func (s *CombineService) Combine(ctx context.Context, req CombineRequest) (*phylotree.Tree, error) {
	if len(req.Items) == 0 {
		return nil, phylotree.ErrNoTrees
	}
	trees := make([]*phylotree.Tree, len(req.Items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, item := range req.Items {
		i, item := i, item
		g.Go(func() error {
			path := ExpandTemplate(req.Template, item)
			if s.logger != nil {
				s.logger.Info("processing", "path", path)
			}
			tree, err := s.LoadTree(ctx, path, req.Index)
			if err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info("combining nodes", "trees", len(trees), "tag", req.Tag)
	}
	return phylotree.Combine(trees, req.Tag)
}

// WriteTree writes t as the only tree of a NEXUS file at path.
func (s *CombineService) WriteTree(path, name string, t *phylotree.Tree) error {
	var buf bytes.Buffer
	if err := nexus.Write(&buf, []nexus.Record{nexus.NewRecord(name, t)}); err != nil {
		return &ErrReadFile{Op: "write", Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return &ErrReadFile{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := afero.WriteFile(s.fs, path, buf.Bytes(), 0644); err != nil {
		return &ErrReadFile{Op: "write", Path: path, Err: err}
	}
	return nil
}
