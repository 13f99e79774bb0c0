package request

import (
	"errors"
	"maps"
	"slices"
)

// ErrFilterComparisonUnsupported is returned by CompareFilters. Filter tree
// equivalence is not implemented.
var ErrFilterComparisonUnsupported = errors.New("filter tree comparison is not supported")

// Compared field names, as they appear in Comparison.
const (
	FieldRequest       = "request"
	FieldQueryType     = "query_type"
	FieldQuerySource   = "query_source"
	FieldTimeInterval  = "time_interval"
	FieldDuration      = "duration"
	FieldAggregations  = "aggregations_info"
	FieldGroupBy       = "group_by"
	FieldSelections    = "selections"
	FieldBucketHashKey = "bucket_hash_key"
	FieldFilterQuery   = "filter_query"
	FieldHaving        = "having"
)

// uncovered lists the fields Compare never inspects.
var uncovered = []string{FieldFilterQuery, FieldHaving}

// Comparison is the field-by-field outcome of Compare.
type Comparison struct {
	// Equivalent is true when no compared field differs.
	Equivalent bool `json:"equivalent"`

	// Mismatches names the compared fields that differ, in comparison order.
	Mismatches []string `json:"mismatches,omitempty"`

	// Uncovered names the fields that were not compared. It is never empty:
	// filter and having trees are always listed.
	Uncovered []string `json:"uncovered"`
}

// AreEquivalent reports whether a and b are equivalent on every compared
// field. Filter and having trees are not compared; see Compare.
func AreEquivalent(a, b *BrokerRequest) bool {
	return Compare(a, b).Equivalent
}

// Compare compares a and b field by field.
func Compare(a, b *BrokerRequest) Comparison {
	c := Comparison{Uncovered: slices.Clone(uncovered)}
	if a == nil || b == nil {
		if a != b {
			c.Mismatches = []string{FieldRequest}
		}
		c.Equivalent = len(c.Mismatches) == 0
		return c
	}

	check := func(field string, equal bool) {
		if !equal {
			c.Mismatches = append(c.Mismatches, field)
		}
	}
	check(FieldQueryType, isEqual(a.QueryType, b.QueryType, func(x, y *QueryType) bool { return *x == *y }))
	check(FieldQuerySource, isEqual(a.QuerySource, b.QuerySource, func(x, y *QuerySource) bool { return *x == *y }))
	check(FieldTimeInterval, isEqual(a.TimeInterval, b.TimeInterval, func(x, y *TimeInterval) bool { return *x == *y }))
	check(FieldDuration, isEqual(a.Duration, b.Duration, func(x, y *string) bool { return *x == *y }))
	check(FieldAggregations, aggregationsEqual(a.Aggregations, b.Aggregations))
	check(FieldGroupBy, isEqual(a.GroupBy, b.GroupBy, groupByEquivalent))
	check(FieldSelections, isEqual(a.Selections, b.Selections, selectionEqual))
	check(FieldBucketHashKey, isEqual(a.BucketHashKey, b.BucketHashKey, func(x, y *string) bool { return *x == *y }))

	c.Equivalent = len(c.Mismatches) == 0
	return c
}

// CompareFilters always fails: filter tree equivalence is not implemented.
func CompareFilters(a, b *FilterQueryTree) (bool, error) {
	return false, ErrFilterComparisonUnsupported
}

// isEqual applies the null rule and defers to eq when both are present.
func isEqual[T any](a, b *T, eq func(x, y *T) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return eq(a, b)
}

// Optional lists and maps follow the canonical form: nil is absent, empty is
// present. Requests with the same ID always compare equivalent.

func optionalListEqual[E comparable](a, b []E) bool {
	return (a == nil) == (b == nil) && slices.Equal(a, b)
}

func aggregationsEqual(a, b []AggregationInfo) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return slices.EqualFunc(a, b, func(x, y AggregationInfo) bool {
		return x.Type == y.Type && (x.Params == nil) == (y.Params == nil) && maps.Equal(x.Params, y.Params)
	})
}

// groupByEquivalent compares columns as a multiset. Column order carries no
// meaning; top-N changes results and must match. Columns are always present
// in the canonical form, so nil and empty columns are the same.
func groupByEquivalent(a, b *GroupBy) bool {
	if a.TopN != b.TopN {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	x, y := slices.Clone(a.Columns), slices.Clone(b.Columns)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func selectionEqual(a, b *Selection) bool {
	return a.Offset == b.Offset &&
		a.Size == b.Size &&
		optionalListEqual(a.Columns, b.Columns) &&
		optionalListEqual(a.SortSequence, b.SortSequence)
}
