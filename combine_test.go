// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree_test

import (
	"errors"
	"testing"

	"github.com/mdhender/phylotree"
)

func TestCombine_Concatenates(t *testing.T) {
	first := mustParse(t, "(A[&z=1],B[&z=0])[&z=1]")
	second := mustParse(t, "(A[&z=0],B[&z=1])[&z=0]")
	got, err := phylotree.Combine([]*phylotree.Tree{first, second}, "z")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if got != first {
		t.Errorf("Combine did not return the first tree")
	}
	for id, want := range map[int]string{0: "10", 1: "10", 2: "01"} {
		if value, _ := got.Node(id).Annotation.Get("&z"); value != want {
			t.Errorf("node %d &z = %q, want %q", id, value, want)
		}
	}
	// the other trees are not modified
	if value, _ := second.Node(0).Annotation.Get("&z"); value != "0" {
		t.Errorf("second tree root &z = %q, want %q", value, "0")
	}
}

func TestCombine_QuotedValues(t *testing.T) {
	first := mustParse(t, `A[&z="1"]`)
	second := mustParse(t, `A[&z="0"]`)
	got, err := phylotree.Combine([]*phylotree.Tree{first, second}, "&z")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if value, _ := got.Node(0).Annotation.Get("z"); value != `"10"` {
		t.Errorf("&z = %q, want %q", value, `"10"`)
	}
}

func TestCombine_MixedQuoting(t *testing.T) {
	first := mustParse(t, `A[&z="1"]`)
	second := mustParse(t, `A[&z=0]`)
	got, err := phylotree.Combine([]*phylotree.Tree{first, second}, "z")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if value, _ := got.Node(0).Annotation.Get("z"); value != `"10"` {
		t.Errorf("&z = %q, want %q", value, `"10"`)
	}
}

func TestCombine_SingleLeafTrees(t *testing.T) {
	var trees []*phylotree.Tree
	for _, text := range []string{"A[&z=1]", "A[&z=2]", "A[&z=3]"} {
		trees = append(trees, mustParse(t, text))
	}
	got, err := phylotree.Combine(trees, "z")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if value, _ := got.Node(0).Annotation.Get("z"); value != "123" {
		t.Errorf("&z = %q, want %q", value, "123")
	}
}

func TestCombine_PairsNodesByPosition(t *testing.T) {
	// the node IDs differ between the trees but positions match
	first := mustParse(t, "((A[&s=a],B[&s=b])[&s=ab],C[&s=c])[&s=r]")
	second := mustParse(t, "((X[&s=A],Y[&s=B])[&s=AB],Z[&s=C])[&s=R]")
	got, err := phylotree.Combine([]*phylotree.Tree{first, second}, "s")
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	want := map[string]string{"A": "aA", "B": "bB", "C": "cC"}
	for _, id := range got.Leaves() {
		n := got.Node(id)
		if value, _ := n.Annotation.Get("s"); value != want[n.Name] {
			t.Errorf("%s &s = %q, want %q", n.Name, value, want[n.Name])
		}
	}
	inner := got.Node(got.Node(0).Left)
	if value, _ := inner.Annotation.Get("s"); value != "abAB" {
		t.Errorf("inner &s = %q, want %q", value, "abAB")
	}
}

func TestCombine_TopologyMismatch(t *testing.T) {
	first := mustParse(t, "((A[&z=1],B[&z=1])[&z=1],C[&z=1])[&z=1]")
	second := mustParse(t, "(A[&z=0],(B[&z=0],C[&z=0])[&z=0])[&z=0]")
	_, err := phylotree.Combine([]*phylotree.Tree{first, second}, "z")
	var se *phylotree.StructureError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want StructureError", err)
	}
	for _, id := range first.Preorder() {
		if value, _ := first.Node(id).Annotation.Get("z"); value != "1" {
			t.Errorf("node %d &z = %q after failed combine, want %q", id, value, "1")
		}
	}
}

func TestCombine_MissingKey(t *testing.T) {
	first := mustParse(t, "(A[&z=1],B[&z=1])[&z=1]")
	second := mustParse(t, "(A[&z=0],B)[&z=0]")
	_, err := phylotree.Combine([]*phylotree.Tree{first, second}, "z")
	if got, want := phylotree.ErrorCode(err), phylotree.ErrCodeStructure; got != want {
		t.Errorf("ErrorCode(%v) = %q, want %q", err, got, want)
	}
}

func TestCombine_NoTrees(t *testing.T) {
	if _, err := phylotree.Combine(nil, "z"); !errors.Is(err, phylotree.ErrNoTrees) {
		t.Errorf("err = %v, want ErrNoTrees", err)
	}
	if _, err := phylotree.Combine([]*phylotree.Tree{nil}, "z"); !errors.Is(err, phylotree.ErrNoTrees) {
		t.Errorf("err = %v, want ErrNoTrees", err)
	}
}
