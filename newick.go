// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"strconv"
	"strings"
)

// Newick renders the tree as an annotated Newick string ending in ';'.
// Each node is written as children, name, annotation block and branch
// length, in that order. Names that are not made of bare taxon
// characters are single-quoted. Parsing the result yields the same tree.
func (t *Tree) Newick() string {
	type step struct {
		id        int
		separator bool // write ',' and nothing else
		close     bool // children are written, write ')' and the label
	}
	var sb strings.Builder
	stack := []step{{id: t.Root()}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.separator {
			sb.WriteByte(',')
			continue
		}
		n := &t.nodes[s.id]
		if !n.IsLeaf() {
			if !s.close {
				sb.WriteByte('(')
				stack = append(stack,
					step{id: s.id, close: true},
					step{id: n.Right},
					step{separator: true},
					step{id: n.Left})
				continue
			}
			sb.WriteByte(')')
		}
		writeLabel(&sb, n)
	}
	sb.WriteByte(';')
	return sb.String()
}

func writeLabel(sb *strings.Builder, n *Node) {
	if n.Name != "" {
		sb.WriteString(quoteName(n.Name))
	}
	if n.Annotation != nil {
		sb.WriteString(n.Annotation.String())
	}
	if n.Branch != nil {
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(*n.Branch, 'g', -1, 64))
	}
}

// quoteName returns name as is when every byte is a bare taxon byte,
// otherwise single-quoted with inner quotes doubled.
func quoteName(name string) string {
	for i := 0; i < len(name); i++ {
		if !istaxon(name[i]) {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}
