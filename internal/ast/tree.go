package ast

import (
	"fmt"
	"slices"
)

// NodeID is a handle to a node in a Tree.
type NodeID int32

// NoNode is the parent of the root and of detached nodes.
const NoNode NodeID = -1

type node struct {
	kind     Kind
	payload  Payload
	parent   NodeID
	children []NodeID
}

// Tree is an arena of AST nodes with a single root.
type Tree struct {
	nodes []node
	root  NodeID
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{root: NoNode}
}

// NewNode allocates a detached node. The payload must match the kind.
func (t *Tree) NewNode(kind Kind, payload Payload) (NodeID, error) {
	if !kind.Valid() {
		return NoNode, fmt.Errorf("invalid node kind %s", kind)
	}
	if err := checkPayload(kind, payload); err != nil {
		return NoNode, err
	}
	t.nodes = append(t.nodes, node{kind: kind, payload: payload, parent: NoNode})
	return NodeID(len(t.nodes) - 1), nil
}

// Len returns the number of nodes allocated in the arena, including nodes
// detached by rewrite hooks.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID {
	return t.root
}

// SetRoot marks id as the root of the tree.
func (t *Tree) SetRoot(id NodeID) {
	t.mustExist(id)
	t.root = id
}

// Kind returns the kind of a node.
func (t *Tree) Kind(id NodeID) Kind {
	return t.at(id).kind
}

// Payload returns the payload of a node, or nil for kinds without one.
func (t *Tree) Payload(id NodeID) Payload {
	return t.at(id).payload
}

// Parent returns the parent of a node. The second result is false for the
// root and for detached nodes.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.at(id).parent
	return p, p != NoNode
}

// SetParent records parent as the navigation link of id. It does not touch
// any child sequence; use AddChild for that.
func (t *Tree) SetParent(id, parent NodeID) {
	if parent != NoNode {
		t.mustExist(parent)
	}
	t.at(id).parent = parent
}

// AddChild appends child to the ordered child sequence of parent.
func (t *Tree) AddChild(parent, child NodeID) {
	t.mustExist(child)
	n := t.at(parent)
	n.children = append(n.children, child)
}

// HasChildren reports whether a node has at least one child.
func (t *Tree) HasChildren(id NodeID) bool {
	return len(t.at(id).children) > 0
}

// Children returns the live child sequence of a node. The slice aliases the
// tree's storage: copy it before iterating if a hook may run meanwhile.
func (t *Tree) Children(id NodeID) []NodeID {
	return t.at(id).children
}

// Child returns the i-th child of a node.
func (t *Tree) Child(id NodeID, i int) NodeID {
	return t.at(id).children[i]
}

// ChildrenOf returns the children of id with the given kind, in order.
func (t *Tree) ChildrenOf(id NodeID, kind Kind) []NodeID {
	var out []NodeID
	for _, c := range t.at(id).children {
		if t.nodes[c].kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// FirstChildOf returns the first child of id with the given kind.
func (t *Tree) FirstChildOf(id NodeID, kind Kind) (NodeID, bool) {
	for _, c := range t.at(id).children {
		if t.nodes[c].kind == kind {
			return c, true
		}
	}
	return NoNode, false
}

// Walk visits the subtree below id depth-first in child order. Returning
// false from fn skips the children of the visited node.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	if id == NoNode {
		return
	}
	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{id, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.id, f.depth) {
			continue
		}
		children := t.nodes[f.id].children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], f.depth + 1})
		}
	}
}

// Check verifies the shape of the tree reachable from the root: the root has
// no parent, every reachable node appears exactly once in its parent's child
// sequence, parent links agree with child sequences, and there are no cycles.
func (t *Tree) Check() error {
	if t.root == NoNode {
		return fmt.Errorf("tree has no root")
	}
	if p := t.nodes[t.root].parent; p != NoNode {
		return fmt.Errorf("root %d has parent %d", t.root, p)
	}

	seen := make(map[NodeID]bool, len(t.nodes))
	queue := []NodeID{t.root}
	seen[t.root] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range t.nodes[id].children {
			if seen[c] {
				return fmt.Errorf("node %d (%s) is reachable twice", c, t.nodes[c].kind)
			}
			seen[c] = true
			if p := t.nodes[c].parent; p != id {
				return fmt.Errorf("node %d (%s) lists parent %d but is a child of %d", c, t.nodes[c].kind, p, id)
			}
			queue = append(queue, c)
		}
	}
	return nil
}

// detach removes child from the child sequence of its parent and clears its
// parent link. It returns the index the child occupied, or -1.
func (t *Tree) detach(child NodeID) int {
	parent := t.nodes[child].parent
	t.nodes[child].parent = NoNode
	if parent == NoNode {
		return -1
	}
	siblings := t.nodes[parent].children
	i := slices.Index(siblings, child)
	if i < 0 {
		return -1
	}
	t.nodes[parent].children = slices.Delete(siblings, i, i+1)
	return i
}

// adopt moves every child of from into to's child sequence at index at,
// keeping their order.
func (t *Tree) adopt(to NodeID, at int, from NodeID) {
	moved := t.nodes[from].children
	t.nodes[from].children = nil
	for _, c := range moved {
		t.nodes[c].parent = to
	}
	t.nodes[to].children = slices.Insert(t.nodes[to].children, at, moved...)
}

func (t *Tree) at(id NodeID) *node {
	t.mustExist(id)
	return &t.nodes[id]
}

func (t *Tree) mustExist(id NodeID) {
	if id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("ast: node %d out of range [0,%d)", id, len(t.nodes)))
	}
}
