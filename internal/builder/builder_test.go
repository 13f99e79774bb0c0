package builder

import (
	"errors"
	"strconv"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pql2/internal/ast"
	"github.com/roach88/pql2/internal/grammar"
	"github.com/roach88/pql2/internal/ir"
)

// counting wraps a Builder and counts events.
type counting struct {
	*Builder
	enters, exits int
}

func (c *counting) Enter(p grammar.Production) error {
	c.enters++
	return c.Builder.Enter(p)
}

func (c *counting) Exit(p grammar.Production) {
	c.exits++
	c.Builder.Exit(p)
}

func mustParse(t *testing.T, query string) *ast.Tree {
	t.Helper()
	tree, err := Parse(query)
	require.NoError(t, err)
	require.NoError(t, tree.Check())
	return tree
}

func only(t *testing.T, tree *ast.Tree, kind ast.Kind) ast.NodeID {
	t.Helper()
	var found []ast.NodeID
	tree.Walk(tree.Root(), func(id ast.NodeID, _ int) bool {
		if tree.Kind(id) == kind {
			found = append(found, id)
		}
		return true
	})
	require.Len(t, found, 1, "nodes of kind %s", kind)
	return found[0]
}

func TestBuilder_BalancedEvents(t *testing.T) {
	queries := []string{
		"SELECT * FROM t",
		"SELECT a, count(*) FROM t WHERE a = 1 AND (b < 2 OR c IN (1, 2)) GROUP BY a TOP 3",
		"SELECT a FROM t WHERE x BETWEEN 1 AND 10 ORDER BY a DESC LIMIT 5, 10",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			root, err := grammar.Parse(q)
			require.NoError(t, err)

			c := &counting{Builder: New()}
			require.NoError(t, grammar.Walk(root, c))

			assert.Equal(t, c.enters, c.exits)
			assert.Equal(t, 0, c.Depth())
			tree, err := c.Tree()
			require.NoError(t, err)
			assert.NotEqual(t, ast.NoNode, tree.Root())
			assert.Equal(t, ast.KindSelect, tree.Kind(tree.Root()))
			require.NoError(t, tree.Check())
		})
	}
}

func TestBuilder_ChildOrderFollowsSource(t *testing.T) {
	tree := mustParse(t, "SELECT c, a, b FROM t")
	cols := only(t, tree, ast.KindOutputColumnList)

	var names []string
	for _, col := range tree.Children(cols) {
		id := tree.Child(col, 0)
		names = append(names, tree.Payload(id).(ast.Name).Text)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)

	root := tree.Root()
	assert.Equal(t, []ast.Kind{ast.KindOutputColumnList, ast.KindTableName},
		[]ast.Kind{tree.Kind(tree.Child(root, 0)), tree.Kind(tree.Child(root, 1))})
}

func TestBuilder_Limit(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM t LIMIT 10")
	limit := only(t, tree, ast.KindLimit)
	assert.Equal(t, ast.Limit{MaxRows: 10}, tree.Payload(limit))

	tree = mustParse(t, "SELECT * FROM t LIMIT 5, 10")
	limit = only(t, tree, ast.KindLimit)
	assert.Equal(t, ast.Limit{Offset: 5, MaxRows: 10, HasOffset: true}, tree.Payload(limit))
}

func TestBuilder_LimitDecidedByChildCount(t *testing.T) {
	b := New()
	lim := grammar.NewProduction(ast.KindLimit, "LIMIT 7, 3",
		grammar.NewTerminal("LIMIT"), grammar.NewTerminal("7"), grammar.NewTerminal(","), grammar.NewTerminal("3"))
	require.NoError(t, b.Enter(lim))
	b.Exit(lim)

	tree, err := b.Tree()
	require.NoError(t, err)
	assert.Equal(t, ast.Limit{Offset: 7, MaxRows: 3, HasOffset: true}, tree.Payload(tree.Root()))
}

func TestBuilder_Top(t *testing.T) {
	tree := mustParse(t, "SELECT count(*) FROM t GROUP BY a TOP 25")
	top := only(t, tree, ast.KindTopClause)
	assert.Equal(t, ast.Top{Count: 25}, tree.Payload(top))
}

func TestBuilder_StringLiteral(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM t WHERE a = 'hello'", "hello"},
		{"SELECT * FROM t WHERE a = 'O''clock'", "O''clock"},
		{`SELECT * FROM t WHERE a = "double"`, "double"},
		{"SELECT * FROM t WHERE a = ''", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tree := mustParse(t, tt.query)
			lit := only(t, tree, ast.KindStringLiteral)
			assert.Equal(t, ast.String{Value: tt.want}, tree.Payload(lit))
		})
	}
}

func TestBuilder_NumericLiterals(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM t WHERE a > -42")
	assert.Equal(t, ast.Integer{Value: -42}, tree.Payload(only(t, tree, ast.KindIntegerLiteral)))

	tree = mustParse(t, "SELECT * FROM t WHERE a > 2.5e2")
	assert.Equal(t, ast.Float{Value: 250, Text: "2.5e2"}, tree.Payload(only(t, tree, ast.KindFloatingPointLiteral)))
}

func TestBuilder_MalformedLiteral(t *testing.T) {
	_, err := Parse("SELECT * FROM t WHERE a = 99999999999999999999")
	var lit *LiteralError
	require.True(t, errors.As(err, &lit), "got %v", err)
	assert.Equal(t, ast.KindIntegerLiteral, lit.Kind)
	assert.Equal(t, "99999999999999999999", lit.Text)
	assert.True(t, errors.Is(err, strconv.ErrRange))

	_, err = Parse("SELECT * FROM t LIMIT 99999999999999999999")
	require.True(t, errors.As(err, &lit))
	assert.Equal(t, ast.KindLimit, lit.Kind)
}

func TestBuilder_EnterErrorLeavesStack(t *testing.T) {
	b := New()
	sel := grammar.NewProduction(ast.KindSelect, "SELECT")
	require.NoError(t, b.Enter(sel))

	bad := grammar.NewProduction(ast.KindIntegerLiteral, "12abc", grammar.NewTerminal("12abc"))
	err := b.Enter(bad)
	var lit *LiteralError
	require.True(t, errors.As(err, &lit))
	assert.Equal(t, 1, b.Depth())

	// A terminal has no node kind.
	require.Error(t, b.Enter(grammar.NewTerminal("x")))
	assert.Equal(t, 1, b.Depth())
}

func TestBuilder_TreeBeforeRootExit(t *testing.T) {
	b := New()
	_, err := b.Tree()
	assert.ErrorIs(t, err, ErrIncomplete)

	sel := grammar.NewProduction(ast.KindSelect, "SELECT")
	require.NoError(t, b.Enter(sel))
	_, err = b.Tree()
	assert.ErrorIs(t, err, ErrIncomplete)

	b.Exit(sel)
	tree, err := b.Tree()
	require.NoError(t, err)
	assert.Equal(t, ast.KindSelect, tree.Kind(tree.Root()))
}

func stackPanic(t *testing.T, fn func()) *StackError {
	t.Helper()
	var got *StackError
	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "expected panic")
			err, ok := r.(*StackError)
			require.True(t, ok, "panic value %T", r)
			got = err
		}()
		fn()
	}()
	return got
}

func TestBuilder_ExitOnEmptyStackPanics(t *testing.T) {
	b := New()
	err := stackPanic(t, func() { b.Exit(grammar.NewProduction(ast.KindWhere, "WHERE")) })
	assert.Equal(t, "exit", err.Op)
	assert.Contains(t, err.Error(), "stack is empty")

	_, treeErr := b.Tree()
	assert.ErrorIs(t, treeErr, ErrIncomplete, "no partial tree")
}

func TestBuilder_EnterAfterRootClosedPanics(t *testing.T) {
	b := New()
	sel := grammar.NewProduction(ast.KindSelect, "SELECT")
	require.NoError(t, b.Enter(sel))
	b.Exit(sel)

	err := stackPanic(t, func() { _ = b.Enter(sel) })
	assert.Equal(t, "enter", err.Op)
}

func TestBuilder_FlattensBooleanChains(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM t WHERE a = 1 AND b = 2 AND c = 3 OR d = 4")

	where := only(t, tree, ast.KindWhere)
	or := tree.Child(where, 0)
	assert.Equal(t, ast.Operator{Text: "OR"}, tree.Payload(or))
	require.Len(t, tree.Children(or), 2)

	and := tree.Child(or, 0)
	assert.Equal(t, ast.Operator{Text: "AND"}, tree.Payload(and))
	assert.Len(t, tree.Children(and), 3)
}

func TestBuilder_OperatorsFromChildren(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM t WHERE a + 1 <= b and c NOT IN (1) and d IS NULL")

	assert.Equal(t, ast.Operator{Text: "<="}, tree.Payload(only(t, tree, ast.KindComparisonPredicate)))
	assert.Equal(t, ast.Operator{Text: "+"}, tree.Payload(only(t, tree, ast.KindBinaryMathOp)))
	assert.Equal(t, ast.Operator{Text: "AND"}, tree.Payload(only(t, tree, ast.KindBooleanPredicateOp)))
	assert.Equal(t, ast.Negation{Negated: true}, tree.Payload(only(t, tree, ast.KindInPredicate)))
	assert.Equal(t, ast.Negation{}, tree.Payload(only(t, tree, ast.KindIsPredicate)))
}

func TestBuilder_SplitBetweenRepaired(t *testing.T) {
	// A grammar that lets the boolean AND claim the BETWEEN's AND delivers
	// WHERE(AND(BETWEEN(x, 1), 2)).
	term := grammar.NewTerminal
	x := grammar.NewProduction(ast.KindIdentifier, "x", term("x"))
	low := grammar.NewProduction(ast.KindIntegerLiteral, "1", term("1"))
	high := grammar.NewProduction(ast.KindIntegerLiteral, "2", term("2"))
	between := grammar.NewProduction(ast.KindBetweenPredicate, "x BETWEEN 1", x, term("BETWEEN"), low)
	and := grammar.NewProduction(ast.KindBooleanPredicateOp, "x BETWEEN 1 AND 2", between, term("AND"), high)
	where := grammar.NewProduction(ast.KindWhere, "WHERE x BETWEEN 1 AND 2", term("WHERE"), and)

	b := New()
	require.NoError(t, grammar.Walk(where, b))
	tree, err := b.Tree()
	require.NoError(t, err)
	require.NoError(t, tree.Check())

	assert.Equal(t, "Where\n"+
		"  BetweenPredicate\n"+
		"    Identifier name=x\n"+
		"    IntegerLiteral value=1\n"+
		"    IntegerLiteral value=2\n", tree.String())
}

func TestBuilder_SplitBetweenRepairedAfterFirstConjunct(t *testing.T) {
	// y = 1 AND x BETWEEN 1 AND 2 nests left: AND(AND(y = 1, BETWEEN(x, 1)), 2).
	term := grammar.NewTerminal
	ident := func(name string) *grammar.Node {
		return grammar.NewProduction(ast.KindIdentifier, name, term(name))
	}
	integer := func(text string) *grammar.Node {
		return grammar.NewProduction(ast.KindIntegerLiteral, text, term(text))
	}
	cmp := grammar.NewProduction(ast.KindComparisonPredicate, "y = 1", ident("y"), term("="), integer("1"))
	between := grammar.NewProduction(ast.KindBetweenPredicate, "x BETWEEN 1", ident("x"), term("BETWEEN"), integer("1"))
	inner := grammar.NewProduction(ast.KindBooleanPredicateOp, "y = 1 AND x BETWEEN 1", cmp, term("AND"), between)
	outer := grammar.NewProduction(ast.KindBooleanPredicateOp, "y = 1 AND x BETWEEN 1 AND 2", inner, term("AND"), integer("2"))
	where := grammar.NewProduction(ast.KindWhere, "WHERE y = 1 AND x BETWEEN 1 AND 2", term("WHERE"), outer)

	b := New()
	require.NoError(t, grammar.Walk(where, b))
	tree, err := b.Tree()
	require.NoError(t, err)
	require.NoError(t, tree.Check())

	assert.Equal(t, "Where\n"+
		"  BooleanPredicateOp op=AND\n"+
		"    ComparisonPredicate op==\n"+
		"      Identifier name=y\n"+
		"      IntegerLiteral value=1\n"+
		"    BetweenPredicate\n"+
		"      Identifier name=x\n"+
		"      IntegerLiteral value=1\n"+
		"      IntegerLiteral value=2\n", tree.String())
}

func TestBuilder_NestedGroupsCollapse(t *testing.T) {
	tree := mustParse(t, "SELECT * FROM t WHERE ((a = 1))")
	group := only(t, tree, ast.KindPredicateParenthesisGroup)
	assert.Equal(t, ast.KindComparisonPredicate, tree.Kind(tree.Child(group, 0)))
}

func TestBuilder_Golden(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"aggregation_group_by_top", "SELECT sum(m) FROM t WHERE a = 'x' AND b BETWEEN 1 AND 2 GROUP BY d TOP 5"},
		{"selection_or_group_limit", "SELECT * FROM t WHERE (a = 1 OR b = 2 OR c = 3) LIMIT 5, 10"},
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustParse(t, tt.query)
			data, err := ir.MarshalCanonicalIndent(tree.Snapshot())
			require.NoError(t, err)
			g.Assert(t, tt.name, data)
		})
	}
}
