package request

// BrokerRequest is a compiled query. Pointer and slice fields are optional;
// nil means the field is absent.
type BrokerRequest struct {
	QueryType     *QueryType        `json:"query_type,omitempty" yaml:"query_type,omitempty"`
	QuerySource   *QuerySource      `json:"query_source,omitempty" yaml:"query_source,omitempty"`
	TimeInterval  *TimeInterval     `json:"time_interval,omitempty" yaml:"time_interval,omitempty"`
	Duration      *string           `json:"duration,omitempty" yaml:"duration,omitempty"`
	FilterQuery   *FilterQueryTree  `json:"filter_query,omitempty" yaml:"filter_query,omitempty"`
	Aggregations  []AggregationInfo `json:"aggregations_info,omitempty" yaml:"aggregations_info,omitempty"`
	GroupBy       *GroupBy          `json:"group_by,omitempty" yaml:"group_by,omitempty"`
	Selections    *Selection        `json:"selections,omitempty" yaml:"selections,omitempty"`
	Having        *FilterQueryTree  `json:"having,omitempty" yaml:"having,omitempty"`
	BucketHashKey *string           `json:"bucket_hash_key,omitempty" yaml:"bucket_hash_key,omitempty"`
}

// QueryType flags which parts of the request are populated.
type QueryType struct {
	HasSelection   bool `json:"has_selection,omitempty" yaml:"has_selection,omitempty"`
	HasFilter      bool `json:"has_filter,omitempty" yaml:"has_filter,omitempty"`
	HasAggregation bool `json:"has_aggregation,omitempty" yaml:"has_aggregation,omitempty"`
	HasGroupBy     bool `json:"has_group_by,omitempty" yaml:"has_group_by,omitempty"`
	HasHaving      bool `json:"has_having,omitempty" yaml:"has_having,omitempty"`
}

// QuerySource names the table a request reads.
type QuerySource struct {
	TableName string `json:"table_name" yaml:"table_name"`
}

// TimeInterval bounds the request in epoch milliseconds, end exclusive.
type TimeInterval struct {
	StartMillis int64 `json:"start_millis" yaml:"start_millis"`
	EndMillis   int64 `json:"end_millis" yaml:"end_millis"`
}

// AggregationInfo is one aggregation function, e.g.
//
//	{Type: "sum", Params: {"column": "metric"}}
type AggregationInfo struct {
	Type   string            `json:"aggregation_type" yaml:"aggregation_type"`
	Params map[string]string `json:"aggregation_params,omitempty" yaml:"aggregation_params,omitempty"`
}

// GroupBy lists the grouping columns and how many groups to keep.
type GroupBy struct {
	Columns []string `json:"columns" yaml:"columns"`
	TopN    int64    `json:"top_n" yaml:"top_n"`
}

// Selection describes a row-returning query.
type Selection struct {
	Columns      []string        `json:"selection_columns,omitempty" yaml:"selection_columns,omitempty"`
	SortSequence []SelectionSort `json:"selection_sort_sequence,omitempty" yaml:"selection_sort_sequence,omitempty"`
	Offset       int             `json:"offset,omitempty" yaml:"offset,omitempty"`
	Size         int             `json:"size" yaml:"size"`
}

// SelectionSort is one ORDER BY item.
type SelectionSort struct {
	Column string `json:"column" yaml:"column"`
	IsAsc  bool   `json:"is_asc" yaml:"is_asc"`
}

// FilterOperator is the operator of a filter tree node.
type FilterOperator string

const (
	FilterAnd      FilterOperator = "AND"
	FilterOr       FilterOperator = "OR"
	FilterEquality FilterOperator = "EQUALITY"
	FilterNot      FilterOperator = "NOT"
	FilterRange    FilterOperator = "RANGE"
	FilterRegex    FilterOperator = "REGEX"
	FilterIn       FilterOperator = "IN"
	FilterNotIn    FilterOperator = "NOT_IN"
)

// IsBoolean reports whether op combines child filters.
func (op FilterOperator) IsBoolean() bool {
	return op == FilterAnd || op == FilterOr
}

// Valid reports whether op is a known operator.
func (op FilterOperator) Valid() bool {
	switch op {
	case FilterAnd, FilterOr, FilterEquality, FilterNot, FilterRange, FilterRegex, FilterIn, FilterNotIn:
		return true
	}
	return false
}

// FilterQueryTree is a WHERE or HAVING predicate. Boolean nodes carry
// Children; leaf nodes carry Column and Values.
//
// RANGE values use the encoding
//
//	[lower\t\tupper]
//
// where '[' and ']' are inclusive bounds, '(' and ')' exclusive ones, and
// '*' stands for an unbounded side: "(16312\t\t*)" is column > 16312.
type FilterQueryTree struct {
	Column   string             `json:"column,omitempty" yaml:"column,omitempty"`
	Values   []string           `json:"value,omitempty" yaml:"value,omitempty"`
	Operator FilterOperator     `json:"operator" yaml:"operator"`
	Children []*FilterQueryTree `json:"children,omitempty" yaml:"children,omitempty"`
}

// String returns a pointer to s, for optional fields.
func String(s string) *string {
	return &s
}
