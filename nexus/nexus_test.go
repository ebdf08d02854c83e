// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package nexus_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdhender/phylotree"
	"github.com/mdhender/phylotree/nexus"
	"github.com/spf13/afero"
)

const sample = `#NEXUS
[written by a sampler; comments may hold semicolons]
Begin taxa;
	Dimensions ntax=3;
	Taxlabels Alpha Beta 'Gamma ray';
End;

BEGIN TREES;
	Translate
		1 Alpha,
		2 Beta,
		3 'Gamma ray'
		;
	tree STATE_0 = [&lnP=-12.5,posterior=-3.1] ((1[&z=1]:1.0,2[&z=0]:2.0)[&z=1]:0.5,3[&z=0]:1.5)[&z=1];
	tree STATE_1000 = [&R] ((1[&z=0]:1.0,2[&z=1]:2.0)[&z=1]:0.5,3[&z=1]:1.5)[&z=0];
END;
`

func TestParse(t *testing.T) {
	f, err := nexus.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	wantTable := map[string]string{"1": "Alpha", "2": "Beta", "3": "Gamma ray"}
	if diff := cmp.Diff(wantTable, f.Table); diff != "" {
		t.Errorf("translate table mismatch (-want +got):\n%s", diff)
	}
	if got, want := f.Len(), 2; got != want {
		t.Fatalf("Len = %d, want %d", got, want)
	}
	if got, want := f.Trees[0].Name, "STATE_0"; got != want {
		t.Errorf("Trees[0].Name = %q, want %q", got, want)
	}
	if got, want := f.Trees[1].Line, 15; got != want {
		t.Errorf("Trees[1].Line = %d, want %d", got, want)
	}
}

func TestRecord_ParseAndTranslate(t *testing.T) {
	f, err := nexus.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, err := f.Tree(-1)
	if err != nil {
		t.Fatalf("Tree(-1): %v", err)
	}
	if rec.Name != "STATE_1000" {
		t.Errorf("Tree(-1).Name = %q, want %q", rec.Name, "STATE_1000")
	}
	tree, err := rec.Parse()
	if err != nil {
		t.Fatalf("parse record: %v", err)
	}
	if n := f.Translate(tree); n != 3 {
		t.Errorf("Translate = %d, want 3", n)
	}
	var names []string
	for _, id := range tree.Leaves() {
		names = append(names, tree.Node(id).Name)
	}
	if diff := cmp.Diff([]string{"Alpha", "Beta", "Gamma ray"}, names); diff != "" {
		t.Errorf("leaf names mismatch (-want +got):\n%s", diff)
	}
	// tree-level metadata is not attached to the root
	if value, _ := tree.Node(0).Annotation.Get("z"); value != "0" {
		t.Errorf("root &z = %q, want %q", value, "0")
	}
}

func TestFile_TreeIndex(t *testing.T) {
	f, err := nexus.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, tc := range []struct {
		index int
		want  string
	}{
		{0, "STATE_0"},
		{1, "STATE_1000"},
		{-1, "STATE_1000"},
		{-2, "STATE_0"},
	} {
		rec, err := f.Tree(tc.index)
		if err != nil || rec.Name != tc.want {
			t.Errorf("Tree(%d) = %q, %v, want %q", tc.index, rec.Name, err, tc.want)
		}
	}
	for _, index := range []int{2, -3} {
		if _, err := f.Tree(index); !errors.Is(err, nexus.ErrIndexOutOfRange) {
			t.Errorf("Tree(%d) err = %v, want ErrIndexOutOfRange", index, err)
		}
	}
	empty, err := nexus.Parse([]byte("#NEXUS\nbegin trees;\nend;\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := empty.Tree(-1); !errors.Is(err, nexus.ErrNoTrees) {
		t.Errorf("Tree(-1) on empty file err = %v, want ErrNoTrees", err)
	}
}

func TestParse_IgnoresTreesOutsideTreesBlock(t *testing.T) {
	f, err := nexus.Parse([]byte("#NEXUS\nbegin data;\n\ttree X = (A,B);\nend;\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Len() != 0 {
		t.Errorf("Len = %d, want 0", f.Len())
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		line  int
	}{
		{"unclosed comment", "#NEXUS\nbegin trees;\n[unclosed\ntree X = (A,B);\nend;\n", 3},
		{"unclosed quote", "#NEXUS\nbegin trees;\ntree 'X = (A,B);\nend;\n", 3},
		{"tree without equals", "#NEXUS\nbegin trees;\ntree X (A,B);\nend;\n", 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := nexus.Parse([]byte(tc.input))
			var se *nexus.SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want SyntaxError", err)
			}
			if se.Line != tc.line {
				t.Errorf("line = %d, want %d", se.Line, tc.line)
			}
		})
	}
}

func TestWriteAndReadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	f, err := nexus.Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec, _ := f.Tree(0)
	tree, err := rec.Parse()
	if err != nil {
		t.Fatalf("parse record: %v", err)
	}
	f.Translate(tree)

	var buf bytes.Buffer
	if err := nexus.Write(&buf, []nexus.Record{nexus.NewRecord("combined", tree)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := afero.WriteFile(fs, "/out/combined.nex", buf.Bytes(), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	again, err := nexus.ReadFile(fs, "/out/combined.nex")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got, err := again.Tree(0)
	if err != nil {
		t.Fatalf("Tree(0): %v", err)
	}
	if got.Name != "combined" {
		t.Errorf("Name = %q, want %q", got.Name, "combined")
	}
	reparsed, err := got.Parse()
	if err != nil {
		t.Fatalf("parse written record: %v", err)
	}
	if reparsed.Newick() != tree.Newick() {
		t.Errorf("Newick = %q, want %q", reparsed.Newick(), tree.Newick())
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := nexus.ReadFile(afero.NewMemMapFs(), "/nope.nex"); err == nil {
		t.Errorf("err = nil, want error")
	}
}

func TestWrite_SingleLeafCombinedTree(t *testing.T) {
	var trees []*phylotree.Tree
	for _, text := range []string{"A[&z=1]", "A[&z=0]"} {
		tree, err := phylotree.Parse([]byte(text))
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		trees = append(trees, tree)
	}
	combined, err := phylotree.Combine(trees, "z")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}

	var buf bytes.Buffer
	if err := nexus.Write(&buf, []nexus.Record{nexus.NewRecord("combined", combined)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := nexus.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("parse written file: %v", err)
	}
	rec, err := f.Tree(0)
	if err != nil {
		t.Fatalf("Tree(0): %v", err)
	}
	reread, err := rec.Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", rec.Text, err)
	}
	if got, want := reread.Newick(), "A[&z=10];"; got != want {
		t.Errorf("Newick = %q, want %q", got, want)
	}
}
