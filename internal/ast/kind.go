package ast

import (
	"fmt"
	"strings"
)

// Kind identifies the grammar production a node was built from.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindSelect
	KindTableName
	KindStarColumnList
	KindOutputColumnList
	KindOutputColumn
	KindIdentifier
	KindStarExpression
	KindFunctionCall
	KindIntegerLiteral
	KindFloatingPointLiteral
	KindStringLiteral
	KindIsPredicate
	KindComparisonPredicate
	KindBetweenPredicate
	KindInPredicate
	KindPredicateParenthesisGroup
	KindExpressionParenthesisGroup
	KindBooleanPredicateOp
	KindBinaryMathOp
	KindOrderBy
	KindOrderByExpression
	KindGroupBy
	KindHaving
	KindWhere
	KindLimit
	KindTopClause

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:                    "Invalid",
	KindSelect:                     "Select",
	KindTableName:                  "TableName",
	KindStarColumnList:             "StarColumnList",
	KindOutputColumnList:           "OutputColumnList",
	KindOutputColumn:               "OutputColumn",
	KindIdentifier:                 "Identifier",
	KindStarExpression:             "StarExpression",
	KindFunctionCall:               "FunctionCall",
	KindIntegerLiteral:             "IntegerLiteral",
	KindFloatingPointLiteral:       "FloatingPointLiteral",
	KindStringLiteral:              "StringLiteral",
	KindIsPredicate:                "IsPredicate",
	KindComparisonPredicate:        "ComparisonPredicate",
	KindBetweenPredicate:           "BetweenPredicate",
	KindInPredicate:                "InPredicate",
	KindPredicateParenthesisGroup:  "PredicateParenthesisGroup",
	KindExpressionParenthesisGroup: "ExpressionParenthesisGroup",
	KindBooleanPredicateOp:         "BooleanPredicateOp",
	KindBinaryMathOp:               "BinaryMathOp",
	KindOrderBy:                    "OrderBy",
	KindOrderByExpression:          "OrderByExpression",
	KindGroupBy:                    "GroupBy",
	KindHaving:                     "Having",
	KindWhere:                      "Where",
	KindLimit:                      "Limit",
	KindTopClause:                  "TopClause",
}

// String returns the production name of the kind.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Valid reports whether k names a node kind.
func (k Kind) Valid() bool {
	return k > KindInvalid && k < kindCount
}

// IsExpression reports whether nodes of this kind produce a value.
func (k Kind) IsExpression() bool {
	switch k {
	case KindIdentifier, KindFunctionCall, KindIntegerLiteral,
		KindFloatingPointLiteral, KindStringLiteral, KindBinaryMathOp,
		KindExpressionParenthesisGroup, KindStarExpression:
		return true
	}
	return false
}

// IsPredicate reports whether nodes of this kind produce a truth value.
func (k Kind) IsPredicate() bool {
	switch k {
	case KindIsPredicate, KindComparisonPredicate, KindBetweenPredicate,
		KindInPredicate, KindPredicateParenthesisGroup, KindBooleanPredicateOp:
		return true
	}
	return false
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindInvalid + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind resolves a production name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	for k := KindInvalid + 1; k < kindCount; k++ {
		if strings.EqualFold(kindNames[k], name) {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown node kind %q", name)
}
