// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package stages_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/model"
	"github.com/mdhender/phylotree/pipelines/stages"
	"github.com/spf13/afero"
)

const runTrees = `#NEXUS
begin trees;
	translate
		1 Alpha,
		2 Beta,
		3 Gamma;
	tree STATE_0 = [&lnP=-10] ((1[&z=1]:1,2[&z=0]:1)[&z=1]:1,3[&z=0]:2)[&z=1];
	tree STATE_1000 = [&lnP=-9] ((1[&z=0]:1,3[&z=1]:1)[&z=0]:1,2[&z=1]:2)[&z=0];
	tree STATE_2000 = [&lnP=-8] ((1[&z=1]:1,2[&z=1]:1)[&z=1]:1,3[&z=1]:2)[&z=1];
end;
`

// mockStore implements stages.IngestStore for testing.
type mockStore struct {
	files       map[int64]*model.TreeFile
	sha256Index map[string]*model.TreeFile
	trees       map[int64]*model.TreeRecord
	clades      map[int64]map[string]int

	nextFileID int64
	nextTreeID int64
	failAt     int
}

func newMockStore() *mockStore {
	return &mockStore{
		files:       make(map[int64]*model.TreeFile),
		sha256Index: make(map[string]*model.TreeFile),
		trees:       make(map[int64]*model.TreeRecord),
		clades:      make(map[int64]map[string]int),
		nextFileID:  1,
		nextTreeID:  1,
		failAt:      -1,
	}
}

func (m *mockStore) GetTreeFileBySHA256(_ context.Context, sha256 string) (*model.TreeFile, error) {
	return m.sha256Index[sha256], nil
}

// InsertTreeFile stores the file and its trees, or nothing when failAt
// names the index of a tree that cannot be stored.
func (m *mockStore) InsertTreeFile(_ context.Context, tf *model.TreeFile, recs []*model.TreeRecord, trees []*phylotree.Tree) (int64, error) {
	if m.failAt >= 0 && m.failAt < len(recs) {
		return 0, fmt.Errorf("insert tree %d: disk full", m.failAt)
	}
	id := m.nextFileID
	m.nextFileID++
	tf.ID = id
	m.files[id] = tf
	m.sha256Index[tf.SHA256] = tf
	for i, rec := range recs {
		rec.TreeFileID = id
		rec.ID = m.insertTree(rec, trees[i])
	}
	return id, nil
}

func (m *mockStore) insertTree(rec *model.TreeRecord, t *phylotree.Tree) int64 {
	id := m.nextTreeID
	m.nextTreeID++
	m.trees[id] = rec
	m.clades[id] = map[string]int{}
	for _, nodeID := range t.Preorder() {
		if clade := t.Node(nodeID).Clade; clade != "" {
			m.clades[id][clade] = nodeID
		}
	}
	return id
}

func newIngest(t *testing.T, store stages.IngestStore) (*stages.IngestService, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/runs/a.trees", []byte(runTrees), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	svc := stages.NewIngestService(store, stages.NewParseService(2, nil))
	svc.SetFS(fs)
	return svc, fs
}

func TestIngestService_IngestFile(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc, _ := newIngest(t, store)

	result, err := svc.IngestFile(ctx, "/runs/a.trees")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Duplicate {
		t.Errorf("first ingest reported a duplicate")
	}
	if result.Trees != 3 || len(store.trees) != 3 {
		t.Errorf("trees = %d (stored %d), want 3", result.Trees, len(store.trees))
	}
	if got, want := store.trees[2].Name, "STATE_1000"; got != want {
		t.Errorf("tree 2 name = %q, want %q", got, want)
	}
	if store.trees[3].Index != 2 {
		t.Errorf("tree 3 index = %d, want 2", store.trees[3].Index)
	}
	// clades are labelled with the translated names
	if _, ok := store.clades[1]["Alpha:Beta"]; !ok {
		t.Errorf("tree 1 clades = %v, want Alpha:Beta", store.clades[1])
	}
	if _, ok := store.clades[2]["Alpha:Gamma"]; !ok {
		t.Errorf("tree 2 clades = %v, want Alpha:Gamma", store.clades[2])
	}

	again, err := svc.IngestFile(ctx, "/runs/a.trees")
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if !again.Duplicate || again.TreeFileID != result.TreeFileID {
		t.Errorf("second ingest = %+v, want duplicate of file %d", again, result.TreeFileID)
	}
	if len(store.trees) != 3 {
		t.Errorf("stored trees = %d after duplicate ingest, want 3", len(store.trees))
	}
}

func TestIngestService_MissingFile(t *testing.T) {
	svc, _ := newIngest(t, newMockStore())
	_, err := svc.IngestFile(context.Background(), "/runs/missing.trees")
	var rf *stages.ErrReadFile
	if !errors.As(err, &rf) {
		t.Fatalf("err = %v, want ErrReadFile", err)
	}
	if got, want := stages.ErrorCode(err), stages.ErrCodeReadFile; got != want {
		t.Errorf("ErrorCode = %q, want %q", got, want)
	}
}

func TestIngestService_BadRecord(t *testing.T) {
	store := newMockStore()
	svc, fs := newIngest(t, store)
	bad := "#NEXUS\nbegin trees;\n\ttree ok = (A,B);\n\ttree bad = (A:x,B);\nend;\n"
	if err := afero.WriteFile(fs, "/runs/bad.trees", []byte(bad), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := svc.IngestFile(context.Background(), "/runs/bad.trees")
	var pe *stages.ErrParseRecord
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ErrParseRecord", err)
	}
	if pe.Index != 1 || pe.Source != "/runs/bad.trees" {
		t.Errorf("ErrParseRecord = %+v, want index 1 of /runs/bad.trees", pe)
	}
	if got, want := phylotree.ErrorCode(pe.Err), phylotree.ErrCodeTokenize; got != want {
		t.Errorf("inner ErrorCode = %q, want %q", got, want)
	}
	if len(store.files) != 0 {
		t.Errorf("stored files = %d after a failed parse, want 0", len(store.files))
	}
}

func TestIngestService_FailedInsertIsRetried(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.failAt = 1
	svc, _ := newIngest(t, store)

	_, err := svc.IngestFile(ctx, "/runs/a.trees")
	var de *stages.ErrDatabase
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want ErrDatabase", err)
	}
	if len(store.files) != 0 || len(store.trees) != 0 {
		t.Fatalf("stored %d files, %d trees after a failed insert, want none", len(store.files), len(store.trees))
	}

	store.failAt = -1
	result, err := svc.IngestFile(ctx, "/runs/a.trees")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if result.Duplicate {
		t.Errorf("retry reported a duplicate")
	}
	if result.Trees != 3 || len(store.trees) != 3 {
		t.Errorf("trees = %d (stored %d), want 3", result.Trees, len(store.trees))
	}
}
