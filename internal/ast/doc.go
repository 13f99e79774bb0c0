// Package ast provides the syntax tree built while parsing a PQL query.
//
// The tree is an arena: nodes live in a slice owned by Tree and are referred
// to by NodeID handles. A node's parent link is a handle used for navigation
// only; ownership runs strictly from parent to child through the ordered
// child sequence.
//
// NODE KINDS:
//
// Kind is a closed tag. Each kind carries at most one payload value from the
// sealed Payload interface:
//
//	Kind                   Payload
//	----                   -------
//	TableName              Name
//	Identifier             Name
//	FunctionCall           Name
//	IntegerLiteral         Integer
//	FloatingPointLiteral   Float
//	StringLiteral          String
//	ComparisonPredicate    Operator
//	BooleanPredicateOp     Operator
//	BinaryMathOp           Operator
//	Limit                  Limit
//	TopClause              Top
//	InPredicate            Negation
//	IsPredicate            Negation
//	OrderByExpression      Ordering
//
// All other kinds have a nil payload. NewNode rejects mismatches.
//
// REWRITE HOOKS:
//
// Two lifecycle calls run bottom-up once a subtree is complete:
//
//   - DoneProcessingSiblings(id) runs for every child of a node once that
//     node has all of its children. It may move the node's neighbours.
//   - DoneProcessingChildren(id) runs after the sibling calls, letting the
//     node normalise its own child list.
//
// Hooks may detach and reattach nodes, so a node's position in its parent is
// not stable once its siblings have been processed. Callers that iterate a
// child sequence while hooks run must iterate a copy.
//
// Tree is not safe for concurrent mutation.
package ast
