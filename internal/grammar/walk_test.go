package grammar

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pql2/internal/ast"
)

type recorder struct {
	events  []string
	failOn  ast.Kind
	entered int
	exited  int
}

func (r *recorder) Enter(p Production) error {
	if p.Kind() == r.failOn {
		return fmt.Errorf("refusing %s", p.Kind())
	}
	r.entered++
	r.events = append(r.events, "+"+p.Kind().String())
	return nil
}

func (r *recorder) Exit(p Production) {
	r.exited++
	r.events = append(r.events, "-"+p.Kind().String())
}

func TestWalk_BalancedEvents(t *testing.T) {
	root, err := Parse("SELECT a FROM t WHERE a = 1")
	require.NoError(t, err)

	r := &recorder{}
	require.NoError(t, Walk(root, r))

	assert.Equal(t, []string{
		"+Select",
		"+OutputColumnList", "+OutputColumn", "+Identifier", "-Identifier", "-OutputColumn", "-OutputColumnList",
		"+TableName", "-TableName",
		"+Where", "+ComparisonPredicate",
		"+Identifier", "-Identifier", "+IntegerLiteral", "-IntegerLiteral",
		"-ComparisonPredicate", "-Where",
		"-Select",
	}, r.events)
	assert.Equal(t, r.entered, r.exited)
}

func TestWalk_StopsOnEnterError(t *testing.T) {
	root, err := Parse("SELECT a FROM t WHERE a = 1")
	require.NoError(t, err)

	r := &recorder{failOn: ast.KindWhere}
	err = Walk(root, r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing Where")
	assert.Equal(t, "+TableName", r.events[len(r.events)-2])
	assert.Equal(t, "-TableName", r.events[len(r.events)-1])
}

func TestWalk_DeepNesting(t *testing.T) {
	depth := 5000
	query := "SELECT * FROM t WHERE " + strings.Repeat("(", depth) + "a = 1" + strings.Repeat(")", depth)
	root, err := Parse(query)
	require.NoError(t, err)

	r := &recorder{}
	require.NoError(t, Walk(root, r))
	assert.Equal(t, r.entered, r.exited)
	assert.Greater(t, r.entered, depth)
}

func TestWalk_TerminalRoot(t *testing.T) {
	r := &recorder{}
	require.NoError(t, Walk(NewTerminal("x"), r))
	assert.Empty(t, r.events)
}

func TestWalk_HandBuiltProductions(t *testing.T) {
	root := NewProduction(ast.KindLimit, "LIMIT 10", NewTerminal("LIMIT"), NewTerminal("10"))
	r := &recorder{}
	require.NoError(t, Walk(root, r))
	assert.Equal(t, []string{"+Limit", "-Limit"}, r.events)
}
