// Package querysql renders broker requests as parameterized SQLite SQL.
//
// The rendering is a reference form used to inspect what a request asks
// for. Filter values are always bound as parameters, never interpolated.
package querysql

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/pql2/internal/request"
)

// ErrNoTimeColumn is returned for a request with a time interval when the
// compiler has no time column to constrain.
var ErrNoTimeColumn = errors.New("request has a time interval but no time column is configured")

// SQLCompiler compiles broker requests to SQL.
//
// Every selection query carries an ORDER BY ending in rowid so results are
// deterministic. Group-by queries order by their first aggregation, then by
// the group columns.
type SQLCompiler struct {
	// TimeColumn is the column constrained by a request's time interval.
	TimeColumn string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// aggregates maps aggregation types to their SQL function.
var aggregates = map[string]string{
	"count": "COUNT",
	"sum":   "SUM",
	"min":   "MIN",
	"max":   "MAX",
	"avg":   "AVG",
}

// Compile converts a broker request to SQL and its bound parameters.
func (c *SQLCompiler) Compile(req *request.BrokerRequest) (string, []any, error) {
	if req == nil {
		return "", nil, fmt.Errorf("cannot compile nil request")
	}
	if req.QuerySource == nil || req.QuerySource.TableName == "" {
		return "", nil, fmt.Errorf("request has no table")
	}

	var (
		sb     strings.Builder
		params []any
	)

	outputs, err := c.outputs(req)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(outputs, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quote(req.QuerySource.TableName))

	var where []string
	if req.FilterQuery != nil {
		sql, p, err := c.predicate(req.FilterQuery)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, sql)
		params = append(params, p...)
	}
	if req.TimeInterval != nil {
		if c.TimeColumn == "" {
			return "", nil, ErrNoTimeColumn
		}
		where = append(where, quote(c.TimeColumn)+" >= ? AND "+quote(c.TimeColumn)+" < ?")
		params = append(params, req.TimeInterval.StartMillis, req.TimeInterval.EndMillis)
	}
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}

	switch {
	case req.GroupBy != nil:
		cols := quoteAll(req.GroupBy.Columns)
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(cols, ", "))
		if req.Having != nil {
			sql, p, err := c.predicate(req.Having)
			if err != nil {
				return "", nil, fmt.Errorf("compile having: %w", err)
			}
			sb.WriteString(" HAVING ")
			sb.WriteString(sql)
			params = append(params, p...)
		}
		order := cols
		if len(req.Aggregations) > 0 {
			first, err := aggregate(req.Aggregations[0])
			if err != nil {
				return "", nil, err
			}
			order = append([]string{first + " DESC"}, cols...)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
		sb.WriteString(" LIMIT ?")
		params = append(params, req.GroupBy.TopN)

	case req.Selections != nil:
		sel := req.Selections
		sb.WriteString(" ORDER BY ")
		for _, s := range sel.SortSequence {
			dir := "DESC"
			if s.IsAsc {
				dir = "ASC"
			}
			sb.WriteString(quote(s.Column) + " " + dir + ", ")
		}
		sb.WriteString("rowid ASC LIMIT ?")
		params = append(params, sel.Size)
		if sel.Offset > 0 {
			sb.WriteString(" OFFSET ?")
			params = append(params, sel.Offset)
		}
	}

	return sb.String(), params, nil
}

// outputs renders the select list. Aggregations without a group follow
// no ORDER BY since they produce a single row.
func (c *SQLCompiler) outputs(req *request.BrokerRequest) ([]string, error) {
	if len(req.Aggregations) > 0 {
		var out []string
		if req.GroupBy != nil {
			out = quoteAll(req.GroupBy.Columns)
		}
		for _, agg := range req.Aggregations {
			sql, err := aggregate(agg)
			if err != nil {
				return nil, err
			}
			out = append(out, sql)
		}
		return out, nil
	}
	if req.Selections == nil || len(req.Selections.Columns) == 0 {
		return nil, fmt.Errorf("request selects nothing")
	}
	if len(req.Selections.Columns) == 1 && req.Selections.Columns[0] == "*" {
		return []string{"*"}, nil
	}
	return quoteAll(req.Selections.Columns), nil
}

func aggregate(agg request.AggregationInfo) (string, error) {
	fn, ok := aggregates[strings.ToLower(agg.Type)]
	col := agg.Params["column"]
	switch {
	case strings.EqualFold(agg.Type, "distinctcount"):
		if col == "" || col == "*" {
			return "", fmt.Errorf("distinctcount needs a column")
		}
		return "COUNT(DISTINCT " + quote(col) + ")", nil
	case !ok:
		return "", fmt.Errorf("unsupported aggregation %q", agg.Type)
	case col == "":
		return "", fmt.Errorf("aggregation %s has no column", agg.Type)
	case col == "*":
		if fn != "COUNT" {
			return "", fmt.Errorf("aggregation %s does not accept *", agg.Type)
		}
		return "COUNT(*)", nil
	}
	return fn + "(" + quote(col) + ")", nil
}

// predicate compiles a filter tree. Boolean nodes are parenthesized when
// nested.
func (c *SQLCompiler) predicate(f *request.FilterQueryTree) (string, []any, error) {
	if f.Operator.IsBoolean() {
		if len(f.Children) == 0 {
			return "", nil, fmt.Errorf("%s has no children", f.Operator)
		}
		var (
			parts  []string
			params []any
		)
		for _, child := range f.Children {
			sql, p, err := c.predicate(child)
			if err != nil {
				return "", nil, err
			}
			if child.Operator.IsBoolean() && len(child.Children) > 1 {
				sql = "(" + sql + ")"
			}
			parts = append(parts, sql)
			params = append(params, p...)
		}
		return strings.Join(parts, " "+string(f.Operator)+" "), params, nil
	}

	col, err := columnExpr(f.Column)
	if err != nil {
		return "", nil, err
	}
	if len(f.Values) == 0 {
		return "", nil, fmt.Errorf("%s on %q has no values", f.Operator, f.Column)
	}

	switch f.Operator {
	case request.FilterEquality, request.FilterNot, request.FilterRegex:
		if len(f.Values) != 1 {
			return "", nil, fmt.Errorf("%s on %q takes one value, got %d", f.Operator, f.Column, len(f.Values))
		}
		op := map[request.FilterOperator]string{
			request.FilterEquality: " = ?",
			request.FilterNot:      " <> ?",
			request.FilterRegex:    " REGEXP ?",
		}[f.Operator]
		return col + op, []any{param(f.Values[0])}, nil

	case request.FilterIn, request.FilterNotIn:
		params := make([]any, len(f.Values))
		for i, v := range f.Values {
			params[i] = param(v)
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.Values)), ", ")
		op := " IN ("
		if f.Operator == request.FilterNotIn {
			op = " NOT IN ("
		}
		return col + op + placeholders + ")", params, nil

	case request.FilterRange:
		if len(f.Values) != 1 {
			return "", nil, fmt.Errorf("RANGE on %q takes one value, got %d", f.Column, len(f.Values))
		}
		r, err := request.ParseRange(f.Values[0])
		if err != nil {
			return "", nil, err
		}
		return rangeSQL(col, r)
	}
	return "", nil, fmt.Errorf("unsupported filter operator %q", f.Operator)
}

func rangeSQL(col string, r request.Range) (string, []any, error) {
	if !r.LowerUnbounded() && !r.UpperUnbounded() && r.LowerInclusive && r.UpperInclusive {
		return col + " BETWEEN ? AND ?", []any{param(r.Lower), param(r.Upper)}, nil
	}
	var (
		parts  []string
		params []any
	)
	if !r.LowerUnbounded() {
		op := " > ?"
		if r.LowerInclusive {
			op = " >= ?"
		}
		parts = append(parts, col+op)
		params = append(params, param(r.Lower))
	}
	if !r.UpperUnbounded() {
		op := " < ?"
		if r.UpperInclusive {
			op = " <= ?"
		}
		parts = append(parts, col+op)
		params = append(params, param(r.Upper))
	}
	sql := strings.Join(parts, " AND ")
	if len(parts) > 1 {
		sql = "(" + sql + ")"
	}
	return sql, params, nil
}

// columnExpr renders a filter column. HAVING columns name aggregations,
// as in "sum(m)".
func columnExpr(column string) (string, error) {
	if column == "" {
		return "", fmt.Errorf("filter has no column")
	}
	open := strings.IndexByte(column, '(')
	if open <= 0 || !strings.HasSuffix(column, ")") {
		return quote(column), nil
	}
	return aggregate(request.AggregationInfo{
		Type:   column[:open],
		Params: map[string]string{"column": column[open+1 : len(column)-1]},
	})
}

// decimalNumber is the shape of a numeric literal in a query, with an
// optional sign. Text such as "nan", "Infinity" or "0x1p4" stays a string.
var decimalNumber = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// param binds numeric text as a number so SQLite compares numerically.
func param(v string) any {
	if !decimalNumber.MatchString(v) {
		return v
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// quote renders an identifier with embedded double quotes doubled.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quote(n)
	}
	return out
}
