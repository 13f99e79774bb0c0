package grammar

import "github.com/roach88/pql2/internal/ast"

// Listener receives enter and exit events for every non-terminal production.
// Exit is called for a production only after Enter succeeded for it.
type Listener interface {
	Enter(p Production) error
	Exit(p Production)
}

// Walk drives l over the tree rooted at root in depth-first order. Terminals
// produce no events. The walk is iterative so deeply nested predicates cannot
// exhaust the goroutine stack. The first Enter error stops the walk; no
// further events are delivered.
func Walk(root Production, l Listener) error {
	type frame struct {
		p    Production
		next int
	}
	if root.Kind() == ast.KindInvalid {
		return nil
	}
	if err := l.Enter(root); err != nil {
		return err
	}
	stack := []frame{{p: root}}
	for len(stack) > 0 {
		top := len(stack) - 1
		f := stack[top]
		if f.next == f.p.ChildCount() {
			stack = stack[:top]
			l.Exit(f.p)
			continue
		}
		child := f.p.Child(f.next)
		stack[top].next++
		if child.Kind() == ast.KindInvalid {
			continue
		}
		if err := l.Enter(child); err != nil {
			return err
		}
		stack = append(stack, frame{p: child})
	}
	return nil
}
