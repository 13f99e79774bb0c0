package builder

import (
	"fmt"

	"github.com/roach88/pql2/internal/ast"
)

// LiteralError reports a literal production whose text cannot be converted
// to its value.
type LiteralError struct {
	Kind ast.Kind
	Text string
	Err  error
}

func (e *LiteralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s %q: %v", e.Kind, e.Text, e.Err)
	}
	return fmt.Sprintf("malformed %s %q", e.Kind, e.Text)
}

func (e *LiteralError) Unwrap() error {
	return e.Err
}

// StackError is the panic value for an unbalanced event stream. It signals a
// defect in the event source, not bad user input.
type StackError struct {
	Op     string
	Kind   ast.Kind
	Reason string
}

func (e *StackError) Error() string {
	return fmt.Sprintf("builder: %s %s: %s", e.Op, e.Kind, e.Reason)
}
