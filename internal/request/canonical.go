package request

import (
	"strings"

	"github.com/roach88/pql2/internal/ir"
)

// Table name suffixes of the realtime and offline halves of a hybrid table.
const (
	RealtimeSuffix = "_REALTIME"
	OfflineSuffix  = "_OFFLINE"
)

// HybridTableName strips a realtime or offline suffix from a table name.
func HybridTableName(name string) string {
	if base, ok := strings.CutSuffix(name, RealtimeSuffix); ok {
		return base
	}
	if base, ok := strings.CutSuffix(name, OfflineSuffix); ok {
		return base
	}
	return name
}

// Canonical returns the request as a plain value tree for ir.MarshalCanonical.
// Absent fields are omitted; false flags and zero offsets are kept out so
// that a request read from a file and the same request built in code
// serialize identically.
func (r *BrokerRequest) Canonical() map[string]any {
	out := map[string]any{}
	if r == nil {
		return out
	}
	if qt := r.QueryType; qt != nil {
		flags := map[string]any{}
		setTrue(flags, "has_selection", qt.HasSelection)
		setTrue(flags, "has_filter", qt.HasFilter)
		setTrue(flags, "has_aggregation", qt.HasAggregation)
		setTrue(flags, "has_group_by", qt.HasGroupBy)
		setTrue(flags, "has_having", qt.HasHaving)
		out[FieldQueryType] = flags
	}
	if r.QuerySource != nil {
		out[FieldQuerySource] = map[string]any{"table_name": r.QuerySource.TableName}
	}
	if ti := r.TimeInterval; ti != nil {
		out[FieldTimeInterval] = map[string]any{"start_millis": ti.StartMillis, "end_millis": ti.EndMillis}
	}
	if r.Duration != nil {
		out[FieldDuration] = *r.Duration
	}
	if r.FilterQuery != nil {
		out[FieldFilterQuery] = r.FilterQuery.canonical()
	}
	if r.Aggregations != nil {
		aggs := make([]any, len(r.Aggregations))
		for i, a := range r.Aggregations {
			m := map[string]any{"aggregation_type": a.Type}
			if a.Params != nil {
				m["aggregation_params"] = a.Params
			}
			aggs[i] = m
		}
		out[FieldAggregations] = aggs
	}
	if g := r.GroupBy; g != nil {
		out[FieldGroupBy] = map[string]any{"columns": stringList(g.Columns), "top_n": g.TopN}
	}
	if s := r.Selections; s != nil {
		m := map[string]any{"size": s.Size}
		if s.Columns != nil {
			m["selection_columns"] = stringList(s.Columns)
		}
		if s.SortSequence != nil {
			seq := make([]any, len(s.SortSequence))
			for i, ss := range s.SortSequence {
				seq[i] = map[string]any{"column": ss.Column, "is_asc": ss.IsAsc}
			}
			m["selection_sort_sequence"] = seq
		}
		if s.Offset != 0 {
			m["offset"] = s.Offset
		}
		out[FieldSelections] = m
	}
	if r.Having != nil {
		out[FieldHaving] = r.Having.canonical()
	}
	if r.BucketHashKey != nil {
		out[FieldBucketHashKey] = *r.BucketHashKey
	}
	return out
}

func (f *FilterQueryTree) canonical() map[string]any {
	m := map[string]any{"operator": string(f.Operator)}
	if f.Column != "" {
		m["column"] = f.Column
	}
	if f.Values != nil {
		m["value"] = stringList(f.Values)
	}
	if len(f.Children) > 0 {
		children := make([]any, 0, len(f.Children))
		for _, c := range f.Children {
			if c != nil {
				children = append(children, c.canonical())
			}
		}
		m["children"] = children
	}
	return m
}

func setTrue(m map[string]any, key string, v bool) {
	if v {
		m[key] = true
	}
}

func stringList(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// MarshalCanonical returns the canonical JSON of the request.
func (r *BrokerRequest) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(r.Canonical())
}

// ID returns the content ID of the request.
func (r *BrokerRequest) ID() (string, error) {
	return ir.ContentID(ir.DomainRequest, r.Canonical())
}
