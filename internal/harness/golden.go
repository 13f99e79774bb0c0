package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pql2/internal/ir"
	"github.com/roach88/pql2/internal/request"
)

// ResultSnapshot is the stable part of a suite result used in golden files.
// Request IDs are left out; errors are reduced to their message.
type ResultSnapshot struct {
	Suite string
	Cases []CaseResult
}

func (s ResultSnapshot) toCanonicalMap() map[string]any {
	cases := make([]any, len(s.Cases))
	for i, c := range s.Cases {
		m := map[string]any{
			"name":       c.Name,
			"query":      c.Query,
			"expected":   c.Expected,
			"equivalent": c.Equivalent,
			"passed":     c.Passed(),
		}
		if len(c.Mismatches) > 0 {
			m["mismatches"] = c.Mismatches
		}
		if len(c.Uncovered) > 0 {
			m["uncovered"] = c.Uncovered
		}
		if c.Err != nil {
			m["error"] = c.Err.Error()
		}
		cases[i] = m
	}
	return map[string]any{"suite": s.Suite, "cases": cases}
}

// AssertResultGolden compares a suite result against
// testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertResultGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	data, err := ir.MarshalCanonicalIndent(ResultSnapshot{Suite: result.Suite, Cases: result.Cases}.toCanonicalMap())
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	newGoldie(t).Assert(t, name, data)
}

// AssertRequestGolden compares a compiled request's canonical JSON against
// testdata/golden/{name}.golden.
func AssertRequestGolden(t *testing.T, name string, req *request.BrokerRequest) {
	t.Helper()
	data, err := ir.MarshalCanonicalIndent(req.Canonical())
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	newGoldie(t).Assert(t, name, data)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
