package request

import (
	"fmt"
	"strings"
)

// RangeSeparator separates the bounds of an encoded range value.
const RangeSeparator = "\t\t"

// Unbounded is the bound text of an open range side.
const Unbounded = "*"

// Range is a decoded RANGE filter value.
type Range struct {
	Lower          string
	Upper          string
	LowerInclusive bool
	UpperInclusive bool
}

// LowerUnbounded reports whether the range has no lower bound.
func (r Range) LowerUnbounded() bool { return r.Lower == Unbounded }

// UpperUnbounded reports whether the range has no upper bound.
func (r Range) UpperUnbounded() bool { return r.Upper == Unbounded }

// String encodes the range. Unbounded sides are always written exclusive.
func (r Range) String() string {
	open, closing := "(", ")"
	if r.LowerInclusive && !r.LowerUnbounded() {
		open = "["
	}
	if r.UpperInclusive && !r.UpperUnbounded() {
		closing = "]"
	}
	return open + r.Lower + RangeSeparator + r.Upper + closing
}

// ParseRange decodes a RANGE value such as "[10\t\t*)".
func ParseRange(s string) (Range, error) {
	if len(s) < 2+len(RangeSeparator) {
		return Range{}, fmt.Errorf("range %q is too short", s)
	}
	var r Range
	switch s[0] {
	case '[':
		r.LowerInclusive = true
	case '(':
	default:
		return Range{}, fmt.Errorf("range %q must start with '[' or '('", s)
	}
	switch s[len(s)-1] {
	case ']':
		r.UpperInclusive = true
	case ')':
	default:
		return Range{}, fmt.Errorf("range %q must end with ']' or ')'", s)
	}
	lower, upper, ok := strings.Cut(s[1:len(s)-1], RangeSeparator)
	if !ok {
		return Range{}, fmt.Errorf("range %q has no bound separator", s)
	}
	if lower == "" || upper == "" {
		return Range{}, fmt.Errorf("range %q has an empty bound", s)
	}
	if lower == Unbounded && upper == Unbounded {
		return Range{}, fmt.Errorf("range %q is unbounded on both sides", s)
	}
	r.Lower, r.Upper = lower, upper
	return r, nil
}
