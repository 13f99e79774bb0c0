package grammar

import "github.com/roach88/pql2/internal/ast"

// Production is one node of the concrete parse tree. Terminals report
// ast.KindInvalid and have no children; every other production names the AST
// kind it produces.
type Production interface {
	Kind() ast.Kind
	Text() string
	ChildCount() int
	Child(i int) Production
}

// Node is the parser's Production implementation.
type Node struct {
	kind     ast.Kind
	children []*Node
	src      string
	start    int
	end      int
	line     int
	column   int
}

var _ Production = (*Node)(nil)

func (n *Node) Kind() ast.Kind { return n.kind }

// Text returns the source text the production spans.
func (n *Node) Text() string { return n.src[n.start:n.end] }

func (n *Node) ChildCount() int { return len(n.children) }

func (n *Node) Child(i int) Production { return n.children[i] }

// IsTerminal reports whether n is a single token.
func (n *Node) IsTerminal() bool { return n.kind == ast.KindInvalid }

// Pos returns the line and column where the production starts.
func (n *Node) Pos() (line, column int) { return n.line, n.column }

// NewTerminal builds a detached terminal with the given text.
func NewTerminal(text string) *Node {
	return &Node{src: text, end: len(text), line: 1, column: 1}
}

// NewProduction builds a detached production with explicit text. It exists
// for callers that drive a listener without the parser.
func NewProduction(kind ast.Kind, text string, children ...*Node) *Node {
	return &Node{kind: kind, children: children, src: text, end: len(text), line: 1, column: 1}
}

func terminal(src string, tok Token) *Node {
	return &Node{src: src, start: tok.Offset, end: tok.End, line: tok.Line, column: tok.Column}
}

// production spans from its first child to its last.
func production(kind ast.Kind, src string, children ...*Node) *Node {
	first, last := children[0], children[len(children)-1]
	return &Node{
		kind:     kind,
		children: children,
		src:      src,
		start:    first.start,
		end:      last.end,
		line:     first.line,
		column:   first.column,
	}
}
