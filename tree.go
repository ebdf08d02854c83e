// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import "fmt"

// NoNode marks a missing child or parent link.
const NoNode = -1

// NodeKind discriminates leaves from internal nodes.
type NodeKind int

const (
	Leaf NodeKind = iota
	Internal
)

func (k NodeKind) String() string {
	if k == Internal {
		return "internal"
	}
	return "leaf"
}

// Node is one node of a Tree. Nodes live in the tree's arena and refer
// to each other by ID, which is also their index in the arena.
type Node struct {
	// ID is assigned in creation order, starting at 0 for the root.
	ID int

	// Name of the node. If it's empty, then this node does not have a name.
	Name string

	// The branch length of this node corresponding to the distance between
	// it and its parent node. If it's `nil`, then no distance exists.
	Branch *float64

	// Annotation is nil when the source had no annotation block.
	Annotation *Annotation

	// Left and Right are both NoNode (leaf) or both set (internal).
	Left, Right int

	// Clade is empty until LabelClades runs.
	Clade string
}

// Kind reports whether the node is a leaf or an internal node.
func (n *Node) Kind() NodeKind {
	if n.Left == NoNode && n.Right == NoNode {
		return Leaf
	}
	return Internal
}

// IsLeaf is shorthand for Kind() == Leaf.
func (n *Node) IsLeaf() bool {
	return n.Kind() == Leaf
}

// Tree is a rooted strict binary tree stored as an arena of nodes.
// Parent links are kept in a side table.
type Tree struct {
	nodes   []Node
	parents []int
}

// newTree returns a tree holding only the root.
func newTree() *Tree {
	t := &Tree{}
	t.addNode(NoNode)
	return t
}

// addNode appends a node with the given parent and returns its ID.
func (t *Tree) addNode(parent int) int {
	id := len(t.nodes)
	t.nodes = append(t.nodes, Node{ID: id, Left: NoNode, Right: NoNode})
	t.parents = append(t.parents, parent)
	return id
}

// Root returns the ID of the root, which is always 0.
func (t *Tree) Root() int {
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given ID, or nil if there is none.
// The pointer is into the arena, so changes to it change the tree.
func (t *Tree) Node(id int) *Node {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// Parent returns the ID of the parent of id, or NoNode for the root.
func (t *Tree) Parent(id int) int {
	if id < 0 || id >= len(t.parents) {
		return NoNode
	}
	return t.parents[id]
}

// Preorder returns node IDs, parents before children, left before right.
func (t *Tree) Preorder() []int {
	ids := make([]int, 0, len(t.nodes))
	stack := []int{t.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, id)
		if n := &t.nodes[id]; !n.IsLeaf() {
			stack = append(stack, n.Right, n.Left)
		}
	}
	return ids
}

// Postorder returns node IDs, children before parents, left before right.
func (t *Tree) Postorder() []int {
	// root-right-left order, reversed, is left-right-root
	ids := make([]int, 0, len(t.nodes))
	stack := []int{t.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ids = append(ids, id)
		if n := &t.nodes[id]; !n.IsLeaf() {
			stack = append(stack, n.Left, n.Right)
		}
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids
}

// BreadthFirst returns node IDs level by level, left before right.
func (t *Tree) BreadthFirst() []int {
	ids := make([]int, 0, len(t.nodes))
	ids = append(ids, t.Root())
	for i := 0; i < len(ids); i++ {
		if n := &t.nodes[ids[i]]; !n.IsLeaf() {
			ids = append(ids, n.Left, n.Right)
		}
	}
	return ids
}

// Leaves returns the IDs of the leaves in left-to-right order.
func (t *Tree) Leaves() []int {
	var ids []int
	for _, id := range t.Preorder() {
		if t.nodes[id].IsLeaf() {
			ids = append(ids, id)
		}
	}
	return ids
}

// SwapChildren exchanges the left and right children of an internal node.
func (t *Tree) SwapChildren(id int) {
	n := t.Node(id)
	if n == nil || n.IsLeaf() {
		return
	}
	n.Left, n.Right = n.Right, n.Left
}

// Rename replaces node names found in table and returns the number of
// nodes renamed. NEXUS translate tables are applied this way.
func (t *Tree) Rename(table map[string]string) int {
	renamed := 0
	for i := range t.nodes {
		if name, ok := table[t.nodes[i].Name]; ok && t.nodes[i].Name != "" {
			t.nodes[i].Name = name
			renamed++
		}
	}
	return renamed
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:   make([]Node, len(t.nodes)),
		parents: append([]int(nil), t.parents...),
	}
	for i, n := range t.nodes {
		if n.Branch != nil {
			branch := *n.Branch
			n.Branch = &branch
		}
		n.Annotation = n.Annotation.Clone()
		c.nodes[i] = n
	}
	return c
}

// NodeRecord is the flat form of a node used by stores.
type NodeRecord struct {
	ID         int
	Parent     int
	Left       int
	Right      int
	Name       string
	Branch     *float64
	Annotation *Annotation
	Clade      string
}

// Records returns one record per node, ordered by ID.
func (t *Tree) Records() []NodeRecord {
	records := make([]NodeRecord, len(t.nodes))
	for i, n := range t.nodes {
		records[i] = NodeRecord{
			ID:         n.ID,
			Parent:     t.parents[i],
			Left:       n.Left,
			Right:      n.Right,
			Name:       n.Name,
			Branch:     n.Branch,
			Annotation: n.Annotation,
			Clade:      n.Clade,
		}
	}
	return records
}

// FromRecords rebuilds a tree from node records. Records may come in any
// order but their IDs must be 0..len-1, node 0 must be the only root and
// the links must describe a strict binary tree.
func FromRecords(records []NodeRecord) (*Tree, error) {
	if len(records) == 0 {
		return nil, ErrNoTrees
	}
	t := &Tree{
		nodes:   make([]Node, len(records)),
		parents: make([]int, len(records)),
	}
	seen := make([]bool, len(records))
	for _, r := range records {
		if r.ID < 0 || r.ID >= len(records) || seen[r.ID] {
			return nil, &StructureError{Op: "load", NodeID: r.ID, Msg: "node id out of range or repeated"}
		}
		seen[r.ID] = true
		t.nodes[r.ID] = Node{
			ID:         r.ID,
			Name:       r.Name,
			Branch:     r.Branch,
			Annotation: r.Annotation,
			Left:       r.Left,
			Right:      r.Right,
			Clade:      r.Clade,
		}
		t.parents[r.ID] = r.Parent
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the strict binary shape and the parent links.
func (t *Tree) Validate() error {
	if len(t.nodes) == 0 {
		return ErrNoTrees
	}
	if t.parents[0] != NoNode {
		return &StructureError{Op: "validate", NodeID: 0, Msg: "root has a parent"}
	}
	for i := range t.nodes {
		n := &t.nodes[i]
		if i != 0 && (t.parents[i] < 0 || t.parents[i] >= len(t.nodes)) {
			return &StructureError{Op: "validate", NodeID: i, Msg: "node is not linked to a parent"}
		}
		if (n.Left == NoNode) != (n.Right == NoNode) {
			return &StructureError{Op: "validate", NodeID: i, Msg: "node has a single child"}
		}
		if n.Left != NoNode && n.Left == n.Right {
			return &StructureError{Op: "validate", NodeID: i, Msg: "left and right are the same node"}
		}
		for _, child := range []int{n.Left, n.Right} {
			if child == NoNode {
				continue
			}
			if child <= 0 || child >= len(t.nodes) || t.parents[child] != i {
				return &StructureError{Op: "validate", NodeID: i, Msg: fmt.Sprintf("child %d does not point back to its parent", child)}
			}
		}
	}
	if reached := len(t.Preorder()); reached != len(t.nodes) {
		return &StructureError{Op: "validate", NodeID: NoNode, Msg: fmt.Sprintf("%d of %d nodes are not reachable from the root", len(t.nodes)-reached, len(t.nodes))}
	}
	return nil
}

type jsonNode struct {
	ID         int         `json:"id"`
	Parent     *int        `json:"parent,omitempty"`
	Left       *int        `json:"left,omitempty"`
	Right      *int        `json:"right,omitempty"`
	Name       string      `json:"name,omitempty"`
	Branch     *float64    `json:"branch,omitempty"`
	Annotation *Annotation `json:"annotation,omitempty"`
	Clade      string      `json:"clade,omitempty"`
}

// MarshalJSON encodes the tree as a list of nodes ordered by ID.
func (t *Tree) MarshalJSON() ([]byte, error) {
	link := func(id int) *int {
		if id == NoNode {
			return nil
		}
		return &id
	}
	nodes := make([]jsonNode, len(t.nodes))
	for i, n := range t.nodes {
		nodes[i] = jsonNode{
			ID:         n.ID,
			Parent:     link(t.parents[i]),
			Left:       link(n.Left),
			Right:      link(n.Right),
			Name:       n.Name,
			Branch:     n.Branch,
			Annotation: n.Annotation,
			Clade:      n.Clade,
		}
	}
	return marshalUnescaped(struct {
		Nodes []jsonNode `json:"nodes"`
	}{Nodes: nodes})
}
