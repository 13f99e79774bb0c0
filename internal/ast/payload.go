package ast

import "fmt"

// Payload is the per-kind data captured when a node is created.
//
// This is a sealed interface - only types in this package implement it.
// Payload values are immutable once attached to a node.
type Payload interface {
	payloadNode()
}

// Name is the text of a table name, column identifier or function name.
type Name struct {
	Text string
}

func (Name) payloadNode() {}

// Integer is the value of an integer literal.
type Integer struct {
	Value int64
}

func (Integer) payloadNode() {}

// Float is the value of a floating point literal.
// Text keeps the lexeme so the value can be re-rendered without rounding.
type Float struct {
	Value float64
	Text  string
}

func (Float) payloadNode() {}

// String is the value of a string literal with its surrounding quotes removed.
// Doubled-quote escapes inside the literal are kept as written.
type String struct {
	Value string
}

func (String) payloadNode() {}

// Operator is the operator text of a comparison, boolean or arithmetic node.
type Operator struct {
	Text string
}

func (Operator) payloadNode() {}

// Limit holds both forms of the LIMIT clause.
//
//	LIMIT 10      -> Limit{MaxRows: 10}
//	LIMIT 5, 10   -> Limit{Offset: 5, MaxRows: 10, HasOffset: true}
type Limit struct {
	Offset    int64
	MaxRows   int64
	HasOffset bool
}

func (Limit) payloadNode() {}

// Top is the argument of the legacy TOP n clause.
type Top struct {
	Count int64
}

func (Top) payloadNode() {}

// Negation marks NOT IN and IS NOT NULL.
type Negation struct {
	Negated bool
}

func (Negation) payloadNode() {}

// Ordering is the direction of an ORDER BY item.
type Ordering struct {
	Descending bool
}

func (Ordering) payloadNode() {}

// checkPayload verifies that p is the payload type kind k carries.
func checkPayload(k Kind, p Payload) error {
	var ok bool
	switch k {
	case KindTableName, KindIdentifier, KindFunctionCall:
		_, ok = p.(Name)
	case KindIntegerLiteral:
		_, ok = p.(Integer)
	case KindFloatingPointLiteral:
		_, ok = p.(Float)
	case KindStringLiteral:
		_, ok = p.(String)
	case KindComparisonPredicate, KindBooleanPredicateOp, KindBinaryMathOp:
		_, ok = p.(Operator)
	case KindLimit:
		_, ok = p.(Limit)
	case KindTopClause:
		_, ok = p.(Top)
	case KindInPredicate, KindIsPredicate:
		_, ok = p.(Negation)
	case KindOrderByExpression:
		_, ok = p.(Ordering)
	default:
		ok = p == nil
	}
	if !ok {
		return fmt.Errorf("payload %T is not valid for %s", p, k)
	}
	return nil
}
