// Package builder turns grammar enter/exit events into an ast.Tree.
//
// A Builder keeps an explicit stack of open nodes. Enter creates a node for
// the production, attaches it to the node on top of the stack and pushes it.
// Exit pops the top node, runs DoneProcessingSiblings on a snapshot of its
// children and then DoneProcessingChildren on the node itself, so every
// subtree is complete before its hooks run and siblings settle before their
// parent normalises its child list.
//
// A Builder serves exactly one query and is not safe for concurrent use.
package builder

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/pql2/internal/ast"
	"github.com/roach88/pql2/internal/grammar"
)

// ErrIncomplete is returned by Tree before the root production has exited.
var ErrIncomplete = errors.New("builder: tree is not complete")

// Builder is the listener that builds the AST.
type Builder struct {
	tree  *ast.Tree
	stack []ast.NodeID
	root  ast.NodeID
	done  bool
}

var _ grammar.Listener = (*Builder)(nil)

// New creates a builder for a single query.
func New() *Builder {
	return &Builder{tree: ast.NewTree(), root: ast.NoNode}
}

// Enter creates the node for p and pushes it. A malformed literal returns a
// *LiteralError and leaves the stack untouched.
func (b *Builder) Enter(p grammar.Production) error {
	if b.done {
		panic(&StackError{Op: "enter", Kind: p.Kind(), Reason: "root already closed"})
	}
	payload, err := payloadFor(p)
	if err != nil {
		return err
	}
	id, err := b.tree.NewNode(p.Kind(), payload)
	if err != nil {
		return fmt.Errorf("enter %s: %w", p.Kind(), err)
	}

	if n := len(b.stack); n > 0 {
		top := b.stack[n-1]
		b.tree.AddChild(top, id)
		b.tree.SetParent(id, top)
	} else {
		b.root = id
		b.tree.SetRoot(id)
	}
	b.stack = append(b.stack, id)
	return nil
}

// Exit pops the open node and runs its rewrite hooks. Exit with nothing
// open means the event stream is unbalanced; it panics with *StackError.
func (b *Builder) Exit(p grammar.Production) {
	n := len(b.stack)
	if n == 0 {
		panic(&StackError{Op: "exit", Kind: p.Kind(), Reason: "stack is empty"})
	}
	id := b.stack[n-1]
	b.stack = b.stack[:n-1]

	// Hooks may rearrange the live child sequence.
	children := append([]ast.NodeID(nil), b.tree.Children(id)...)
	for _, c := range children {
		b.tree.DoneProcessingSiblings(c)
	}
	b.tree.DoneProcessingChildren(id)

	if len(b.stack) == 0 {
		b.done = true
	}
}

// Depth returns the number of open nodes.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Tree returns the completed tree. It returns ErrIncomplete until the root
// production has exited.
func (b *Builder) Tree() (*ast.Tree, error) {
	if !b.done {
		return nil, ErrIncomplete
	}
	return b.tree, nil
}

// Parse parses query and builds its AST with a fresh builder.
func Parse(query string) (*ast.Tree, error) {
	root, err := grammar.Parse(query)
	if err != nil {
		return nil, err
	}
	b := New()
	if err := grammar.Walk(root, b); err != nil {
		return nil, err
	}
	tree, err := b.Tree()
	if err != nil {
		return nil, err
	}
	slog.Debug("built ast", "nodes", tree.Len(), "query", query)
	return tree, nil
}
