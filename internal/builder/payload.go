package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/pql2/internal/ast"
	"github.com/roach88/pql2/internal/grammar"
)

// payloadFor extracts the payload the node for p carries.
func payloadFor(p grammar.Production) (ast.Payload, error) {
	switch p.Kind() {
	case ast.KindTableName, ast.KindIdentifier:
		return ast.Name{Text: p.Text()}, nil

	case ast.KindFunctionCall:
		return ast.Name{Text: childText(p, 0)}, nil

	case ast.KindIntegerLiteral:
		v, err := parseInt(p.Kind(), p.Text())
		if err != nil {
			return nil, err
		}
		return ast.Integer{Value: v}, nil

	case ast.KindFloatingPointLiteral:
		v, err := strconv.ParseFloat(p.Text(), 64)
		if err != nil {
			return nil, &LiteralError{Kind: p.Kind(), Text: p.Text(), Err: err}
		}
		return ast.Float{Value: v, Text: p.Text()}, nil

	case ast.KindStringLiteral:
		text := p.Text()
		if len(text) < 2 {
			return nil, &LiteralError{Kind: p.Kind(), Text: text, Err: fmt.Errorf("missing quotes")}
		}
		// Doubled quotes are left as written.
		return ast.String{Value: text[1 : len(text)-1]}, nil

	case ast.KindComparisonPredicate, ast.KindBinaryMathOp:
		return ast.Operator{Text: childText(p, 1)}, nil

	case ast.KindBooleanPredicateOp:
		return ast.Operator{Text: strings.ToUpper(childText(p, 1))}, nil

	case ast.KindLimit:
		return limitPayload(p)

	case ast.KindTopClause:
		n, err := parseInt(p.Kind(), childText(p, 1))
		if err != nil {
			return nil, err
		}
		return ast.Top{Count: n}, nil

	case ast.KindInPredicate, ast.KindIsPredicate:
		return ast.Negation{Negated: hasTerminal(p, "NOT")}, nil

	case ast.KindOrderByExpression:
		desc := false
		if n := p.ChildCount(); n > 0 {
			last := p.Child(n - 1)
			desc = last.Kind() == ast.KindInvalid && strings.EqualFold(last.Text(), "DESC")
		}
		return ast.Ordering{Descending: desc}, nil
	}
	return nil, nil
}

// limitPayload tells the two LIMIT forms apart by child count:
// [LIMIT n] or [LIMIT offset ',' n].
func limitPayload(p grammar.Production) (ast.Payload, error) {
	if p.ChildCount() == 2 {
		n, err := parseInt(p.Kind(), childText(p, 1))
		if err != nil {
			return nil, err
		}
		return ast.Limit{MaxRows: n}, nil
	}
	offset, err := parseInt(p.Kind(), childText(p, 1))
	if err != nil {
		return nil, err
	}
	n, err := parseInt(p.Kind(), childText(p, 3))
	if err != nil {
		return nil, err
	}
	return ast.Limit{Offset: offset, MaxRows: n, HasOffset: true}, nil
}

func parseInt(kind ast.Kind, text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, &LiteralError{Kind: kind, Text: text, Err: err}
	}
	return v, nil
}

// childText returns the text of child i, or "" when p has fewer children.
func childText(p grammar.Production, i int) string {
	if i >= p.ChildCount() {
		return ""
	}
	return p.Child(i).Text()
}

func hasTerminal(p grammar.Production, text string) bool {
	for i := 0; i < p.ChildCount(); i++ {
		c := p.Child(i)
		if c.Kind() == ast.KindInvalid && strings.EqualFold(c.Text(), text) {
			return true
		}
	}
	return false
}
