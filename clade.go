// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"sort"
	"strings"
)

const (
	// RootClade is the clade label of every root.
	RootClade = "ROOT"

	// CladeSeparator joins the taxa of an unnamed internal node.
	CladeSeparator = ":"
)

// LabelClades sets Clade on every node of t and returns a map from clade
// label to node ID.
//
// The root is labelled "ROOT". Any other named node (every leaf and any
// labelled internal node) is labelled with its name and stands for that
// name alone in its ancestors' labels. An unnamed internal node is
// labelled with the taxa of both children, sorted and joined with ":",
// so swapping its children does not change the label.
//
// Unnamed leaves get an empty label and no map entry. If two nodes get
// the same label, the one visited later in postorder wins the map entry.
func LabelClades(t *Tree) map[string]int {
	clades := make(map[string]int, t.Len())
	taxa := make([][]string, t.Len())
	for _, id := range t.Postorder() {
		n := &t.nodes[id]
		switch {
		case t.parents[id] == NoNode:
			n.Clade = RootClade
			taxa[id] = []string{RootClade}
		case n.Name != "":
			n.Clade = n.Name
			taxa[id] = []string{n.Name}
		case n.IsLeaf():
			// an unnamed leaf has no taxa to contribute
			n.Clade = ""
			taxa[id] = nil
		default:
			list := make([]string, 0, len(taxa[n.Left])+len(taxa[n.Right]))
			list = append(list, taxa[n.Left]...)
			list = append(list, taxa[n.Right]...)
			sort.Strings(list)
			n.Clade = strings.Join(list, CladeSeparator)
			taxa[id] = list
		}
		if !n.IsLeaf() {
			// children's lists are no longer needed
			taxa[n.Left], taxa[n.Right] = nil, nil
		}
		if n.Clade != "" {
			clades[n.Clade] = id
		}
	}
	return clades
}
