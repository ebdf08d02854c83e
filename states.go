// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"fmt"
	"strconv"
	"strings"
)

// Coding selects how annotation symbols are decoded into states.
type Coding int

const (
	// Standard reads every symbol as a decimal integer.
	Standard Coding = iota
	// Covarion maps 0 and A to 0, 1 and B to 1.
	Covarion
	// PDCovarion maps A (absent), B (removed) and 0 to 0,
	// 1 (present) and ? to 1.
	PDCovarion
)

var (
	covarionStates = map[string]int{
		"0": 0,
		"1": 1,
		"A": 0,
		"B": 1,
	}
	pdCovarionStates = map[string]int{
		"A": 0, // absent
		"1": 1, // present
		"B": 0, // removed
		"0": 0, // absentS
		"?": 1, // presentS
	}
)

func (c Coding) String() string {
	switch c {
	case Standard:
		return "standard"
	case Covarion:
		return "covarion"
	case PDCovarion:
		return "pdcovarion"
	}
	return fmt.Sprintf("Coding(%d)", int(c))
}

// ParseCoding accepts "standard", "covarion" or "pdcovarion".
func ParseCoding(s string) (Coding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return Standard, nil
	case "covarion":
		return Covarion, nil
	case "pdcovarion":
		return PDCovarion, nil
	}
	return Standard, fmt.Errorf("unknown coding %q", s)
}

func (c Coding) decode(symbol string) (int, error) {
	switch c {
	case Standard:
		state, err := strconv.Atoi(symbol)
		if err != nil {
			return 0, fmt.Errorf("invalid %s state %q", c, symbol)
		}
		return state, nil
	case Covarion:
		if state, ok := covarionStates[symbol]; ok {
			return state, nil
		}
	case PDCovarion:
		if state, ok := pdCovarionStates[symbol]; ok {
			return state, nil
		}
	default:
		return 0, fmt.Errorf("unknown coding %d", int(c))
	}
	return 0, fmt.Errorf("invalid %s state %q", c, symbol)
}

// DecodeStates turns a raw annotation value into a state vector. Double
// quotes are removed first. A value containing commas is split on them,
// otherwise every character is one symbol.
func DecodeStates(value string, coding Coding) ([]int, error) {
	value = strings.ReplaceAll(value, `"`, "")
	var symbols []string
	if strings.Contains(value, ",") {
		symbols = strings.Split(value, ",")
	} else {
		symbols = strings.Split(value, "")
	}
	states := make([]int, len(symbols))
	for i, symbol := range symbols {
		state, err := coding.decode(symbol)
		if err != nil {
			return nil, err
		}
		states[i] = state
	}
	return states, nil
}

// NodeStates decodes the value of key on node id.
func (t *Tree) NodeStates(id int, key string, coding Coding) ([]int, error) {
	n := t.Node(id)
	if n == nil {
		return nil, fmt.Errorf("node %d: not in tree", id)
	}
	value, ok := n.Annotation.Get(key)
	if !ok {
		return nil, fmt.Errorf("node %d: missing annotation %q", id, NormalizeKey(key))
	}
	states, err := DecodeStates(value, coding)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", id, err)
	}
	return states, nil
}

// StateMatrix returns one state vector per node, indexed by node ID.
// All vectors must have the same length.
func StateMatrix(t *Tree, key string, coding Coding) ([][]int, error) {
	matrix := make([][]int, t.Len())
	width := -1
	for _, id := range t.BreadthFirst() {
		row, err := t.NodeStates(id, key, coding)
		if err != nil {
			return nil, err
		}
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			return nil, fmt.Errorf("node %d: %d states, want %d", id, len(row), width)
		}
		matrix[id] = row
	}
	return matrix, nil
}

// LeafMatrix returns the state vectors of the leaves in breadth-first
// order, together with the leaf node IDs in the same order.
func LeafMatrix(t *Tree, key string, coding Coding) ([][]int, []int, error) {
	var matrix [][]int
	var ids []int
	width := -1
	for _, id := range t.BreadthFirst() {
		if !t.nodes[id].IsLeaf() {
			continue
		}
		row, err := t.NodeStates(id, key, coding)
		if err != nil {
			return nil, nil, err
		}
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			return nil, nil, fmt.Errorf("node %d: %d states, want %d", id, len(row), width)
		}
		matrix = append(matrix, row)
		ids = append(ids, id)
	}
	return matrix, ids, nil
}
