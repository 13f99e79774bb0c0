package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/pql2/internal/ast"
	"github.com/roach88/pql2/internal/request"
)

// flipped maps a comparison operator to its mirror, for literal-first
// predicates such as 5 < x.
var flipped = map[string]string{
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
}

// filter compiles a predicate subtree. In HAVING, aggregation calls may
// stand in for columns.
func (c *compiler) filter(id ast.NodeID, having bool) (*request.FilterQueryTree, error) {
	field := "filter_query"
	if having {
		field = "having"
	}
	switch c.tree.Kind(id) {
	case ast.KindPredicateParenthesisGroup:
		return c.filter(c.tree.Child(id, 0), having)

	case ast.KindBooleanPredicateOp:
		op := request.FilterOperator(c.tree.Payload(id).(ast.Operator).Text)
		if !op.IsBoolean() {
			return nil, errorf(field, "unknown boolean operator %q", op)
		}
		f := &request.FilterQueryTree{Operator: op}
		for _, child := range c.tree.Children(id) {
			sub, err := c.filter(child, having)
			if err != nil {
				return nil, err
			}
			f.Children = append(f.Children, sub)
		}
		return f, nil

	case ast.KindComparisonPredicate:
		return c.comparison(id, field, having)

	case ast.KindBetweenPredicate:
		children := c.tree.Children(id)
		if len(children) != 3 {
			return nil, errorf(field, "BETWEEN needs a column and two bounds")
		}
		col, err := c.column(children[0], field, having)
		if err != nil {
			return nil, err
		}
		low, lok := c.literal(children[1])
		high, hok := c.literal(children[2])
		if !lok || !hok {
			return nil, errorf(field, "BETWEEN bounds on %q must be literals", col)
		}
		r := request.Range{Lower: low, Upper: high, LowerInclusive: true, UpperInclusive: true}
		return &request.FilterQueryTree{Column: col, Operator: request.FilterRange, Values: []string{r.String()}}, nil

	case ast.KindInPredicate:
		children := c.tree.Children(id)
		col, err := c.column(children[0], field, having)
		if err != nil {
			return nil, err
		}
		op := request.FilterIn
		if c.tree.Payload(id).(ast.Negation).Negated {
			op = request.FilterNotIn
		}
		f := &request.FilterQueryTree{Column: col, Operator: op}
		for _, v := range children[1:] {
			text, ok := c.literal(v)
			if !ok {
				return nil, errorf(field, "IN values for %q must be literals, found %s", col, c.tree.Kind(v))
			}
			f.Values = append(f.Values, text)
		}
		return f, nil

	case ast.KindIsPredicate:
		return nil, errorf(field, "IS [NOT] NULL is not supported")
	}
	return nil, errorf(field, "unsupported predicate %s", c.tree.Kind(id))
}

func (c *compiler) comparison(id ast.NodeID, field string, having bool) (*request.FilterQueryTree, error) {
	op := c.tree.Payload(id).(ast.Operator).Text
	lhs, rhs := c.tree.Child(id, 0), c.tree.Child(id, 1)

	value, ok := c.literal(rhs)
	colNode := lhs
	if !ok {
		// Literal first: 5 < x is x > 5.
		if value, ok = c.literal(lhs); !ok {
			return nil, errorf(field, "comparison must be between a column and a literal")
		}
		colNode = rhs
		if f, mirrored := flipped[op]; mirrored {
			op = f
		}
	}
	col, err := c.column(colNode, field, having)
	if err != nil {
		return nil, err
	}

	f := &request.FilterQueryTree{Column: col}
	switch op {
	case "=":
		f.Operator, f.Values = request.FilterEquality, []string{value}
	case "<>", "!=":
		f.Operator, f.Values = request.FilterNot, []string{value}
	case "<":
		f.Operator, f.Values = request.FilterRange, []string{request.Range{Lower: request.Unbounded, Upper: value}.String()}
	case "<=":
		f.Operator, f.Values = request.FilterRange, []string{request.Range{Lower: request.Unbounded, Upper: value, UpperInclusive: true}.String()}
	case ">":
		f.Operator, f.Values = request.FilterRange, []string{request.Range{Lower: value, Upper: request.Unbounded}.String()}
	case ">=":
		f.Operator, f.Values = request.FilterRange, []string{request.Range{Lower: value, Upper: request.Unbounded, LowerInclusive: true}.String()}
	default:
		return nil, errorf(field, "unknown comparison operator %q", op)
	}
	return f, nil
}

// column names the filtered side of a predicate.
func (c *compiler) column(id ast.NodeID, field string, having bool) (string, error) {
	switch c.tree.Kind(id) {
	case ast.KindIdentifier:
		return c.name(id), nil
	case ast.KindFunctionCall:
		if !having {
			return "", errorf(field, "aggregation %s is only allowed in HAVING", c.name(id))
		}
		arg, err := c.functionArg(id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", strings.ToLower(c.name(id)), arg), nil
	case ast.KindExpressionParenthesisGroup:
		return c.column(c.tree.Child(id, 0), field, having)
	}
	return "", errorf(field, "expected a column, found %s", c.tree.Kind(id))
}
