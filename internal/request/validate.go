package request

import "fmt"

// Validation issue codes (W200-W299).
const (
	CodeNoSource          = "W201" // query_source missing or empty
	CodeNoResult          = "W202" // neither selection nor aggregation
	CodeMixedResult       = "W203" // both selection and aggregation
	CodeGroupByNoAgg      = "W204" // group_by without aggregations
	CodeBadTopN           = "W205" // top_n not positive
	CodeBadSize           = "W206" // negative selection size or offset
	CodeQueryTypeMismatch = "W207" // query_type flag disagrees with the request
	CodeBadFilter         = "W208" // malformed filter or having tree
	CodeBadTimeInterval   = "W209" // time interval ends before it starts
)

// ValidationIssue is one problem found by Validate.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
}

// ValidationResult lists problems that make a request unlikely to come from
// a real compiler. They are warnings: comparison still works on such
// requests.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// Validate checks a request for internal consistency. It is a pure function.
func Validate(r *BrokerRequest) ValidationResult {
	v := &validator{}
	v.validate(r)
	return ValidationResult{Valid: len(v.issues) == 0, Issues: v.issues}
}

type validator struct {
	issues []ValidationIssue
}

func (v *validator) add(code, field, format string, args ...any) {
	v.issues = append(v.issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
}

func (v *validator) validate(r *BrokerRequest) {
	if r == nil {
		v.add(CodeNoSource, FieldRequest, "request is nil")
		return
	}
	if r.QuerySource == nil || r.QuerySource.TableName == "" {
		v.add(CodeNoSource, FieldQuerySource, "table name is required")
	}

	hasSel, hasAgg := r.Selections != nil, len(r.Aggregations) > 0
	switch {
	case !hasSel && !hasAgg:
		v.add(CodeNoResult, FieldSelections, "request has neither selections nor aggregations")
	case hasSel && hasAgg:
		v.add(CodeMixedResult, FieldSelections, "request has both selections and aggregations")
	}

	if g := r.GroupBy; g != nil {
		if !hasAgg {
			v.add(CodeGroupByNoAgg, FieldGroupBy, "group by requires at least one aggregation")
		}
		if g.TopN <= 0 {
			v.add(CodeBadTopN, FieldGroupBy, "top_n must be positive, got %d", g.TopN)
		}
	}

	if s := r.Selections; s != nil && (s.Size < 0 || s.Offset < 0) {
		v.add(CodeBadSize, FieldSelections, "offset %d and size %d must not be negative", s.Offset, s.Size)
	}

	if ti := r.TimeInterval; ti != nil && ti.EndMillis < ti.StartMillis {
		v.add(CodeBadTimeInterval, FieldTimeInterval, "end %d is before start %d", ti.EndMillis, ti.StartMillis)
	}

	if qt := r.QueryType; qt != nil {
		v.flag("has_selection", qt.HasSelection, hasSel)
		v.flag("has_filter", qt.HasFilter, r.FilterQuery != nil)
		v.flag("has_aggregation", qt.HasAggregation, hasAgg)
		v.flag("has_group_by", qt.HasGroupBy, r.GroupBy != nil)
		v.flag("has_having", qt.HasHaving, r.Having != nil)
	}

	if r.FilterQuery != nil {
		v.filter(FieldFilterQuery, r.FilterQuery)
	}
	if r.Having != nil {
		v.filter(FieldHaving, r.Having)
	}
}

func (v *validator) flag(name string, flagged, present bool) {
	if flagged != present {
		v.add(CodeQueryTypeMismatch, FieldQueryType, "%s is %t but the part is %s", name, flagged, presence(present))
	}
}

func presence(present bool) string {
	if present {
		return "present"
	}
	return "absent"
}

// filter walks the tree iteratively; filter trees can be deep.
func (v *validator) filter(field string, root *FilterQueryTree) {
	stack := []*FilterQueryTree{root}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f == nil {
			v.add(CodeBadFilter, field, "nil filter node")
			continue
		}
		switch {
		case !f.Operator.Valid():
			v.add(CodeBadFilter, field, "unknown operator %q", f.Operator)
		case f.Operator.IsBoolean():
			if len(f.Children) < 2 {
				v.add(CodeBadFilter, field, "%s needs at least two children, got %d", f.Operator, len(f.Children))
			}
			stack = append(stack, f.Children...)
		default:
			if f.Column == "" || len(f.Values) == 0 {
				v.add(CodeBadFilter, field, "%s needs a column and values", f.Operator)
			}
			if len(f.Children) > 0 {
				v.add(CodeBadFilter, field, "%s on %q must not have children", f.Operator, f.Column)
			}
			if f.Operator == FilterRange {
				for _, val := range f.Values {
					if _, err := ParseRange(val); err != nil {
						v.add(CodeBadFilter, field, "%v", err)
					}
				}
			}
		}
	}
}
