// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"fmt"
	"strings"
)

// Combine merges the values of one annotation key across trees that have
// the same topology. For every position, the values of all trees are
// concatenated in list order and written to the first tree, which is
// modified in place and returned.
//
// If any of the values at a position is double-quoted, the quotes are
// removed from all of them and the result is quoted once.
//
// The key may be given with or without its leading "&". Every node must
// carry the key. Trees whose shapes differ are reported as a
// StructureError at the first node where a leaf meets an internal node;
// on any error the first tree is left unchanged.
func Combine(trees []*Tree, key string) (*Tree, error) {
	if len(trees) == 0 {
		return nil, ErrNoTrees
	}
	for i, t := range trees {
		if t == nil || t.Len() == 0 {
			return nil, fmt.Errorf("combine: tree %d: %w", i, ErrNoTrees)
		}
	}
	key = NormalizeKey(key)
	first := trees[0]

	// worklist of N-tuples of node IDs, one ID per tree; roots are 0
	work := [][]int{make([]int, len(trees))}
	values := make([]string, len(trees))
	// merged values are applied once the whole walk succeeds
	merged := make(map[int]string, first.Len())
	for len(work) > 0 {
		tuple := work[len(work)-1]
		work = work[:len(work)-1]

		quoted := false
		for i, id := range tuple {
			value, ok := trees[i].nodes[id].Annotation.Get(key)
			if !ok {
				return nil, &StructureError{Op: "combine", NodeID: id, Msg: fmt.Sprintf("tree %d: missing annotation %q", i, key)}
			}
			if strings.HasPrefix(value, `"`) {
				quoted = true
			}
			values[i] = value
		}
		var sb strings.Builder
		if quoted {
			sb.WriteByte('"')
		}
		for _, value := range values {
			if quoted {
				value = strings.ReplaceAll(value, `"`, "")
			}
			sb.WriteString(value)
		}
		if quoted {
			sb.WriteByte('"')
		}
		merged[tuple[0]] = sb.String()

		if first.nodes[tuple[0]].IsLeaf() {
			for i, id := range tuple[1:] {
				if !trees[i+1].nodes[id].IsLeaf() {
					return nil, topologyError(i+1, tuple[0], id)
				}
			}
			continue
		}
		left, right := make([]int, len(tuple)), make([]int, len(tuple))
		for i, id := range tuple {
			n := &trees[i].nodes[id]
			if n.IsLeaf() {
				return nil, topologyError(i, tuple[0], id)
			}
			left[i], right[i] = n.Left, n.Right
		}
		// right is pushed first so that left subtrees are merged first
		work = append(work, right, left)
	}
	for id, value := range merged {
		first.nodes[id].Annotation.Set(key, value)
	}
	return first, nil
}

func topologyError(tree, firstID, id int) error {
	return &StructureError{
		Op:     "combine",
		NodeID: firstID,
		Msg:    fmt.Sprintf("tree %d: node %d does not match the shape of the first tree", tree, id),
	}
}
