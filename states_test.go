// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mdhender/phylotree"
)

func TestDecodeStates(t *testing.T) {
	for _, tc := range []struct {
		value  string
		coding phylotree.Coding
		want   []int
	}{
		{"0120", phylotree.Standard, []int{0, 1, 2, 0}},
		{`"10,2,31"`, phylotree.Standard, []int{10, 2, 31}},
		{"01AB", phylotree.Covarion, []int{0, 1, 0, 1}},
		{`"A1B0?"`, phylotree.PDCovarion, []int{0, 1, 0, 0, 1}},
	} {
		got, err := phylotree.DecodeStates(tc.value, tc.coding)
		if err != nil {
			t.Errorf("%s %q: %v", tc.coding, tc.value, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("%s %q mismatch (-want +got):\n%s", tc.coding, tc.value, diff)
		}
	}
}

func TestDecodeStates_UnknownSymbol(t *testing.T) {
	for _, tc := range []struct {
		value  string
		coding phylotree.Coding
	}{
		{"01x", phylotree.Standard},
		{"01C", phylotree.Covarion},
		{"A2", phylotree.PDCovarion},
	} {
		if _, err := phylotree.DecodeStates(tc.value, tc.coding); err == nil {
			t.Errorf("%s %q: err = nil, want error", tc.coding, tc.value)
		}
	}
}

func TestParseCoding(t *testing.T) {
	for input, want := range map[string]phylotree.Coding{
		"":           phylotree.Standard,
		"standard":   phylotree.Standard,
		"Covarion":   phylotree.Covarion,
		"pdcovarion": phylotree.PDCovarion,
	} {
		got, err := phylotree.ParseCoding(input)
		if err != nil || got != want {
			t.Errorf("ParseCoding(%q) = %s, %v, want %s", input, got, err, want)
		}
		if input != "" && got.String() != want.String() {
			t.Errorf("String = %q, want %q", got.String(), want.String())
		}
	}
	if _, err := phylotree.ParseCoding("binary"); err == nil {
		t.Errorf("ParseCoding(binary) err = nil, want error")
	}
}

func TestStateMatrix(t *testing.T) {
	tree := mustParse(t, `(A[&s="01"],(B[&s="11"],C[&s="10"])[&s="11"])[&s="01"]`)
	matrix, err := phylotree.StateMatrix(tree, "s", phylotree.Standard)
	if err != nil {
		t.Fatalf("StateMatrix: %v", err)
	}
	want := [][]int{{0, 1}, {0, 1}, {1, 1}, {1, 1}, {1, 0}}
	if diff := cmp.Diff(want, matrix); diff != "" {
		t.Errorf("matrix mismatch (-want +got):\n%s", diff)
	}

	leaves, ids, err := phylotree.LeafMatrix(tree, "s", phylotree.Standard)
	if err != nil {
		t.Fatalf("LeafMatrix: %v", err)
	}
	if diff := cmp.Diff([]int{1, 3, 4}, ids); diff != "" {
		t.Errorf("leaf ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]int{{0, 1}, {1, 1}, {1, 0}}, leaves); diff != "" {
		t.Errorf("leaf matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestStateMatrix_UnequalWidths(t *testing.T) {
	tree := mustParse(t, `(A[&s=01],B[&s=011])[&s=01]`)
	if _, err := phylotree.StateMatrix(tree, "s", phylotree.Standard); err == nil {
		t.Errorf("err = nil, want width error")
	}
}
