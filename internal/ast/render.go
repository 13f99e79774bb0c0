package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the reachable tree one node per line, indented by depth.
//
//	Select
//	  OutputColumnList
//	    OutputColumn
//	      FunctionCall name=count
//	        StarExpression
//	  TableName name=mytable
func (t *Tree) String() string {
	if t.root == NoNode {
		return ""
	}
	var b strings.Builder
	t.Walk(t.root, func(id NodeID, depth int) bool {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(t.nodes[id].kind.String())
		if desc := describePayload(t.nodes[id].payload); desc != "" {
			b.WriteByte(' ')
			b.WriteString(desc)
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}

// Snapshot returns the reachable tree as nested maps and slices of strings,
// int64s and bools, suitable for canonical JSON encoding.
func (t *Tree) Snapshot() map[string]any {
	if t.root == NoNode {
		return map[string]any{}
	}
	return t.snapshot(t.root)
}

func (t *Tree) snapshot(id NodeID) map[string]any {
	n := t.nodes[id]
	out := map[string]any{"kind": n.kind.String()}
	if p := payloadFields(n.payload); p != nil {
		out["payload"] = p
	}
	if len(n.children) > 0 {
		children := make([]any, len(n.children))
		for i, c := range n.children {
			children[i] = t.snapshot(c)
		}
		out["children"] = children
	}
	return out
}

func payloadFields(p Payload) map[string]any {
	switch v := p.(type) {
	case Name:
		return map[string]any{"name": v.Text}
	case Integer:
		return map[string]any{"value": v.Value}
	case Float:
		// Floats are kept as text so snapshots stay exact.
		return map[string]any{"value": floatText(v)}
	case String:
		return map[string]any{"value": v.Value}
	case Operator:
		return map[string]any{"operator": v.Text}
	case Limit:
		m := map[string]any{"max_rows": v.MaxRows}
		if v.HasOffset {
			m["offset"] = v.Offset
		}
		return m
	case Top:
		return map[string]any{"count": v.Count}
	case Negation:
		return map[string]any{"negated": v.Negated}
	case Ordering:
		return map[string]any{"descending": v.Descending}
	}
	return nil
}

func describePayload(p Payload) string {
	switch v := p.(type) {
	case Name:
		return "name=" + v.Text
	case Integer:
		return "value=" + strconv.FormatInt(v.Value, 10)
	case Float:
		return "value=" + floatText(v)
	case String:
		return "value=" + strconv.Quote(v.Value)
	case Operator:
		return "op=" + v.Text
	case Limit:
		if v.HasOffset {
			return fmt.Sprintf("offset=%d max_rows=%d", v.Offset, v.MaxRows)
		}
		return fmt.Sprintf("max_rows=%d", v.MaxRows)
	case Top:
		return "count=" + strconv.FormatInt(v.Count, 10)
	case Negation:
		if v.Negated {
			return "negated"
		}
	case Ordering:
		if v.Descending {
			return "desc"
		}
		return "asc"
	}
	return ""
}

func floatText(f Float) string {
	if f.Text != "" {
		return f.Text
	}
	return strconv.FormatFloat(f.Value, 'g', -1, 64)
}
