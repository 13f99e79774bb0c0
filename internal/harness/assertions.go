package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when a case's verdict differs from the one it
// asked for. It carries enough context to debug the failure.
type AssertionError struct {
	Case       string
	Query      string
	Expected   bool
	Mismatches []string
	Uncovered  []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "case %q failed\n", e.Case)
	fmt.Fprintf(&buf, "  Query: %s\n", e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", verdict(e.Expected))
	fmt.Fprintf(&buf, "  Actual: %s\n", verdict(!e.Expected))
	if len(e.Mismatches) > 0 {
		fmt.Fprintf(&buf, "  Mismatched fields: %s\n", strings.Join(e.Mismatches, ", "))
	}
	if len(e.Uncovered) > 0 {
		fmt.Fprintf(&buf, "  Not compared: %s\n", strings.Join(e.Uncovered, ", "))
	}

	return buf.String()
}

// CaseError wraps an error that kept a case from being evaluated.
type CaseError struct {
	Case string
	Err  error
}

func (e *CaseError) Error() string {
	return fmt.Sprintf("case %q: %v", e.Case, e.Err)
}

func (e *CaseError) Unwrap() error { return e.Err }

func verdict(equivalent bool) string {
	if equivalent {
		return "equivalent"
	}
	return "not equivalent"
}

// checkCase returns nil for a passing case.
func checkCase(c CaseResult) error {
	if c.Err != nil {
		return &CaseError{Case: c.Name, Err: c.Err}
	}
	if c.Equivalent != c.Expected {
		return &AssertionError{
			Case:       c.Name,
			Query:      c.Query,
			Expected:   c.Expected,
			Mismatches: c.Mismatches,
			Uncovered:  c.Uncovered,
		}
	}
	return nil
}
