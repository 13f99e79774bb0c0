package ast

import (
	"slices"
	"strings"
)

// DoneProcessingChildren runs once all children of id are attached and their
// sibling hooks have run. It lets the node normalise its own child list.
func (t *Tree) DoneProcessingChildren(id NodeID) {
	switch t.at(id).kind {
	case KindBooleanPredicateOp:
		t.flattenBoolean(id)
	case KindPredicateParenthesisGroup, KindExpressionParenthesisGroup:
		t.collapseNestedGroup(id)
	}
}

// DoneProcessingSiblings runs once the parent of id has all of its children.
// It lets the node inspect and rearrange its neighbours.
func (t *Tree) DoneProcessingSiblings(id NodeID) {
	switch t.at(id).kind {
	case KindBetweenPredicate:
		t.absorbSplitBetween(id)
	case KindBooleanPredicateOp:
		if len(t.nodes[id].children) == 1 {
			t.spliceOut(id)
		}
	}
}

// flattenBoolean lifts the children of same-operator boolean children into
// id, so that a AND (b AND c) becomes one AND over a, b and c. Children have
// already been flattened by their own hook, so one level is enough.
func (t *Tree) flattenBoolean(id NodeID) {
	op := t.operator(id)
	i := 0
	for i < len(t.nodes[id].children) {
		c := t.nodes[id].children[i]
		if t.nodes[c].kind != KindBooleanPredicateOp || !strings.EqualFold(t.operator(c), op) {
			i++
			continue
		}
		n := len(t.nodes[c].children)
		t.detach(c)
		t.adopt(id, i, c)
		i += n
	}
	// A BETWEEN lifted out of an inner AND ran its sibling hook before its
	// high bound became a sibling.
	for i := 0; i < len(t.nodes[id].children); i++ {
		if c := t.nodes[id].children[i]; t.nodes[c].kind == KindBetweenPredicate {
			t.absorbSplitBetween(c)
		}
	}
}

// collapseNestedGroup turns ((x)) into (x).
func (t *Tree) collapseNestedGroup(id NodeID) {
	children := t.nodes[id].children
	if len(children) != 1 {
		return
	}
	inner := children[0]
	if t.nodes[inner].kind != t.nodes[id].kind {
		return
	}
	t.detach(inner)
	t.adopt(id, 0, inner)
}

// absorbSplitBetween repairs a BETWEEN whose AND was claimed by the
// enclosing boolean operator: BETWEEN(x, low) AND high becomes
// BETWEEN(x, low, high).
func (t *Tree) absorbSplitBetween(id NodeID) {
	if len(t.nodes[id].children) != 2 {
		return
	}
	parent := t.nodes[id].parent
	if parent == NoNode || t.nodes[parent].kind != KindBooleanPredicateOp {
		return
	}
	if !strings.EqualFold(t.operator(parent), "AND") {
		return
	}
	siblings := t.nodes[parent].children
	i := slices.Index(siblings, id)
	if i < 0 || i+1 >= len(siblings) {
		return
	}
	high := siblings[i+1]
	if !t.nodes[high].kind.IsExpression() {
		return
	}
	t.detach(high)
	t.AddChild(id, high)
	t.SetParent(high, id)
}

// spliceOut replaces id in its parent's child sequence with its only child.
func (t *Tree) spliceOut(id NodeID) {
	parent := t.nodes[id].parent
	if parent == NoNode {
		return
	}
	i := slices.Index(t.nodes[parent].children, id)
	if i < 0 {
		return
	}
	only := t.nodes[id].children[0]
	t.nodes[parent].children[i] = only
	t.nodes[only].parent = parent
	t.nodes[id].children = nil
	t.nodes[id].parent = NoNode
}

func (t *Tree) operator(id NodeID) string {
	if op, ok := t.nodes[id].payload.(Operator); ok {
		return op.Text
	}
	return ""
}
