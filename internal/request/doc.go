// Package request models compiled broker requests and compares them.
//
// A BrokerRequest is the field-based form of a PQL query consumed by the
// execution layer. Two independently produced requests (for example by two
// parser generations) are compared with AreEquivalent or Compare.
//
// COMPARISON RULES:
//
//	Field            Rule
//	-----            ----
//	query_type       exact
//	query_source     exact
//	time_interval    exact
//	duration         exact
//	aggregations     exact, order-sensitive
//	group_by         columns as a multiset, top_n exact
//	selections       exact, order-sensitive
//	bucket_hash_key  exact
//	filter_query     not compared (uncovered)
//	having           not compared (uncovered)
//
// Optional fields follow one null rule everywhere: nil equals nil, nil never
// equals a non-nil value, and no comparison panics.
//
// FILTER TREES:
//
// Filter and having trees are deliberately not compared. Compare lists them
// in Comparison.Uncovered on every call and CompareFilters returns
// ErrFilterComparisonUnsupported, so a caller can never mistake a missing
// comparison for a match.
//
// Comparison is pure and safe for concurrent use.
package request
