// Package compiler turns a PQL syntax tree into a broker request.
package compiler

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/pql2/internal/ast"
	"github.com/roach88/pql2/internal/builder"
	"github.com/roach88/pql2/internal/request"
)

// Defaults applied when a query leaves them out.
const (
	DefaultSelectionSize = 10
	DefaultTopN          = 10
)

// CompileError reports a query that parses but cannot be expressed as a
// broker request.
type CompileError struct {
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func errorf(field, format string, args ...any) error {
	return &CompileError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CompileQuery parses and compiles a query.
func CompileQuery(query string) (*request.BrokerRequest, error) {
	tree, err := builder.Parse(query)
	if err != nil {
		return nil, err
	}
	req, err := Compile(tree)
	if err != nil {
		return nil, err
	}
	slog.Debug("compiled query", "query", query, "table", req.QuerySource.TableName)
	return req, nil
}

// clauses collects the parts of a SELECT before they are combined.
type clauses struct {
	star       bool
	columns    []string
	aggs       []request.AggregationInfo
	table      string
	where      ast.NodeID
	having     ast.NodeID
	groupBy    []string
	hasGroupBy bool
	orderBy    []request.SelectionSort
	top        *ast.Top
	limit      *ast.Limit
}

// Compile builds a broker request from a tree produced by the builder.
func Compile(tree *ast.Tree) (*request.BrokerRequest, error) {
	root := tree.Root()
	if root == ast.NoNode || tree.Kind(root) != ast.KindSelect {
		return nil, errorf("query", "root must be a SELECT")
	}
	c := &compiler{tree: tree}
	cl, err := c.collect(root)
	if err != nil {
		return nil, err
	}
	return c.assemble(cl)
}

type compiler struct {
	tree *ast.Tree
}

func (c *compiler) collect(root ast.NodeID) (*clauses, error) {
	cl := &clauses{where: ast.NoNode, having: ast.NoNode}
	for _, id := range c.tree.Children(root) {
		var err error
		switch c.tree.Kind(id) {
		case ast.KindStarColumnList:
			cl.star = true
		case ast.KindOutputColumnList:
			err = c.outputs(id, cl)
		case ast.KindTableName:
			cl.table = unquote(c.name(id))
		case ast.KindWhere:
			cl.where = c.tree.Child(id, 0)
		case ast.KindHaving:
			cl.having = c.tree.Child(id, 0)
		case ast.KindGroupBy:
			cl.hasGroupBy = true
			for _, e := range c.tree.Children(id) {
				col, ok := c.identifier(e)
				if !ok {
					return nil, errorf("group_by", "only columns can be grouped on, found %s", c.tree.Kind(e))
				}
				cl.groupBy = append(cl.groupBy, col)
			}
		case ast.KindOrderBy:
			for _, item := range c.tree.Children(id) {
				col, ok := c.identifier(c.tree.Child(item, 0))
				if !ok {
					return nil, errorf("order_by", "only columns can be sorted on")
				}
				ord := c.tree.Payload(item).(ast.Ordering)
				cl.orderBy = append(cl.orderBy, request.SelectionSort{Column: col, IsAsc: !ord.Descending})
			}
		case ast.KindTopClause:
			top := c.tree.Payload(id).(ast.Top)
			cl.top = &top
		case ast.KindLimit:
			limit := c.tree.Payload(id).(ast.Limit)
			cl.limit = &limit
		default:
			err = errorf("query", "unexpected %s under SELECT", c.tree.Kind(id))
		}
		if err != nil {
			return nil, err
		}
	}
	if cl.table == "" {
		return nil, errorf("query_source", "table name is required")
	}
	return cl, nil
}

func (c *compiler) outputs(list ast.NodeID, cl *clauses) error {
	for _, col := range c.tree.Children(list) {
		expr := c.tree.Child(col, 0)
		switch c.tree.Kind(expr) {
		case ast.KindIdentifier:
			cl.columns = append(cl.columns, c.name(expr))
		case ast.KindFunctionCall:
			arg, err := c.functionArg(expr)
			if err != nil {
				return err
			}
			cl.aggs = append(cl.aggs, request.AggregationInfo{
				Type:   strings.ToLower(c.name(expr)),
				Params: map[string]string{"column": arg},
			})
		default:
			return errorf("selections", "unsupported output expression %s", c.tree.Kind(expr))
		}
	}
	return nil
}

// functionArg returns the single column argument of an aggregation.
func (c *compiler) functionArg(fn ast.NodeID) (string, error) {
	args := c.tree.Children(fn)
	if len(args) != 1 {
		return "", errorf("aggregations_info", "%s takes exactly one argument, got %d", c.name(fn), len(args))
	}
	switch c.tree.Kind(args[0]) {
	case ast.KindStarExpression:
		return "*", nil
	case ast.KindIdentifier:
		return c.name(args[0]), nil
	}
	return "", errorf("aggregations_info", "%s argument must be a column or *, found %s", c.name(fn), c.tree.Kind(args[0]))
}

func (c *compiler) assemble(cl *clauses) (*request.BrokerRequest, error) {
	req := &request.BrokerRequest{
		QueryType:   &request.QueryType{},
		QuerySource: &request.QuerySource{TableName: cl.table},
	}

	if len(cl.aggs) > 0 {
		for _, col := range cl.columns {
			if !slices.Contains(cl.groupBy, col) {
				return nil, errorf("selections", "column %q must appear in GROUP BY when aggregating", col)
			}
		}
		if len(cl.orderBy) > 0 {
			return nil, errorf("order_by", "ORDER BY is only supported for selection queries")
		}
		if cl.limit != nil && cl.limit.HasOffset {
			return nil, errorf("limit", "LIMIT offset is only supported for selection queries")
		}
		req.Aggregations = cl.aggs
		req.QueryType.HasAggregation = true
		if cl.hasGroupBy {
			req.GroupBy = &request.GroupBy{Columns: cl.groupBy, TopN: topN(cl)}
			req.QueryType.HasGroupBy = true
		}
	} else {
		if cl.hasGroupBy {
			return nil, errorf("group_by", "GROUP BY requires an aggregation")
		}
		sel := &request.Selection{Columns: cl.columns, SortSequence: cl.orderBy, Size: DefaultSelectionSize}
		if cl.star {
			sel.Columns = []string{"*"}
		}
		switch {
		case cl.limit != nil:
			sel.Offset = int(cl.limit.Offset)
			sel.Size = int(cl.limit.MaxRows)
		case cl.top != nil:
			sel.Size = int(cl.top.Count)
		}
		req.Selections = sel
		req.QueryType.HasSelection = true
	}

	if cl.where != ast.NoNode {
		f, err := c.filter(cl.where, false)
		if err != nil {
			return nil, err
		}
		req.FilterQuery = f
		req.QueryType.HasFilter = true
	}
	if cl.having != ast.NoNode {
		if !cl.hasGroupBy {
			return nil, errorf("having", "HAVING requires GROUP BY")
		}
		f, err := c.filter(cl.having, true)
		if err != nil {
			return nil, err
		}
		req.Having = f
		req.QueryType.HasHaving = true
	}
	return req, nil
}

// topN is TOP when given, else the LIMIT row cap, else the default.
func topN(cl *clauses) int64 {
	switch {
	case cl.top != nil:
		return cl.top.Count
	case cl.limit != nil:
		return cl.limit.MaxRows
	}
	return DefaultTopN
}

func (c *compiler) name(id ast.NodeID) string {
	return c.tree.Payload(id).(ast.Name).Text
}

func (c *compiler) identifier(id ast.NodeID) (string, bool) {
	if c.tree.Kind(id) != ast.KindIdentifier {
		return "", false
	}
	return c.name(id), true
}

// unquote strips one surrounding pair of quotes from a table name.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// literal renders a literal node as filter value text.
func (c *compiler) literal(id ast.NodeID) (string, bool) {
	switch v := c.tree.Payload(id).(type) {
	case ast.Integer:
		return strconv.FormatInt(v.Value, 10), true
	case ast.Float:
		if v.Text != "" {
			return v.Text, true
		}
		return strconv.FormatFloat(v.Value, 'g', -1, 64), true
	case ast.String:
		return v.Value, true
	}
	return "", false
}
