package harness

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pql2/internal/grammar"
	"github.com/roach88/pql2/internal/request"
)

func loadSuite(t *testing.T, name string) *Suite {
	t.Helper()
	suite, err := LoadSuite(filepath.Join("testdata", "suites", name))
	require.NoError(t, err)
	return suite
}

func TestRun_SmokeSuite(t *testing.T) {
	suite := loadSuite(t, "smoke.yaml")
	result, err := Run(context.Background(), suite)
	require.NoError(t, err)

	assert.True(t, result.OK(), "%v", result.Failures())
	assert.Equal(t, 5, result.Passed())
	assert.Equal(t, suite.ID, result.SuiteID)
	for _, c := range result.Cases {
		assert.Len(t, c.RequestID, 64, c.Name)
	}
	AssertResultGolden(t, "smoke", result)
}

func TestRun_HybridNormalization(t *testing.T) {
	suite := loadSuite(t, "hybrid.yaml")
	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	assert.True(t, result.OK(), "%v", result.Failures())
	AssertResultGolden(t, "hybrid", result)

	suite.NormalizeHybridTables = false
	result, err = Run(context.Background(), suite)
	require.NoError(t, err)
	assert.False(t, result.OK())
	assert.Equal(t, []string{request.FieldQuerySource}, result.Cases[0].Mismatches)
	assert.Equal(t, "events_OFFLINE", suite.Cases[0].Expect.QuerySource.TableName, "expectation untouched")
}

func TestRun_FailuresAndErrors(t *testing.T) {
	no := false
	suite := &Suite{
		Name: "failing",
		Cases: []Case{
			{Name: "syntax", Query: "SELECT FROM", Expect: &request.BrokerRequest{}},
			{Name: "missing file", Query: "SELECT * FROM t", ExpectFile: "nope.json"},
			{Name: "wrong verdict", Query: "SELECT count(*) FROM t", Equivalent: &no, Expect: &request.BrokerRequest{
				QueryType:    &request.QueryType{HasAggregation: true},
				QuerySource:  &request.QuerySource{TableName: "t"},
				Aggregations: []request.AggregationInfo{{Type: "count", Params: map[string]string{"column": "*"}}},
			}},
		},
		Dir: t.TempDir(),
	}

	result, err := Run(context.Background(), suite)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Failed())

	var syn *grammar.SyntaxError
	assert.True(t, errors.As(result.Cases[0].Err, &syn))
	assert.Empty(t, result.Cases[0].RequestID)

	var nf *ExpectFileNotFoundError
	require.True(t, errors.As(result.Cases[1].Err, &nf))
	assert.Equal(t, filepath.Join(suite.Dir, "nope.json"), nf.ResolvedPath)

	failures := result.Failures()
	require.Len(t, failures, 3)
	var ce *CaseError
	assert.True(t, errors.As(failures[0], &ce))
	var ae *AssertionError
	require.True(t, errors.As(failures[2], &ae))
	assert.Contains(t, ae.Error(), "Expected: not equivalent")
	assert.Contains(t, ae.Error(), "Actual: equivalent")
	assert.Contains(t, ae.Error(), "Not compared: filter_query, having")
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	suite := loadSuite(t, "smoke.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := Run(ctx, suite)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Cases)
}

func TestHarness_CachesCompiledRequests(t *testing.T) {
	h, err := New(WithCacheSize(2))
	require.NoError(t, err)

	a, err := h.Compile("SELECT * FROM t")
	require.NoError(t, err)
	b, err := h.Compile("SELECT * FROM t")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, h.CacheLen())

	for _, q := range []string{"SELECT a FROM t", "SELECT b FROM t"} {
		_, err := h.Compile(q)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, h.CacheLen(), "bounded")

	c, err := h.Compile("SELECT * FROM t")
	require.NoError(t, err)
	assert.NotSame(t, a, c, "evicted entries are recompiled")

	_, err = h.Compile("SELECT FROM")
	assert.Error(t, err)
	assert.Equal(t, 2, h.CacheLen(), "errors are not cached")

	_, err = New(WithCacheSize(0))
	assert.Error(t, err)
}

func TestHarness_Logs(t *testing.T) {
	var buf bytes.Buffer
	h, err := New(WithLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, err)

	_, err = h.Run(context.Background(), loadSuite(t, "hybrid.yaml"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "suite=hybrid")
	assert.Contains(t, buf.String(), "case=realtime_vs_plain")
}

func TestLoadSuite_Errors(t *testing.T) {
	tests := []struct {
		name, content, want string
	}{
		{"unknown field", "name: s\ncase: []\n", "field case not found"},
		{"no name", "cases: [{name: a, query: q, expect: {}}]\n", "name is required"},
		{"no cases", "name: s\n", "cases list is required"},
		{"no expectation", "name: s\ncases: [{name: a, query: q}]\n", "one of expect or expect_file"},
		{"both expectations", "name: s\ncases: [{name: a, query: q, expect: {}, expect_file: x.json}]\n", "mutually exclusive"},
		{"duplicate case", "name: s\ncases: [{name: a, query: q, expect: {}}, {name: a, query: q, expect: {}}]\n", "duplicate case name"},
		{"no query", "name: s\ncases: [{name: a, expect: {}}]\n", "query is required"},
		{"unknown request field", "name: s\ncases: [{name: a, query: q, expect: {query_sauce: {}}}]\n", "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "suite.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := LoadSuite(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, strings.HasPrefix(err.Error(), path))
		})
	}

	_, err := LoadSuite(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseSuite_Defaults(t *testing.T) {
	suite, err := ParseSuite([]byte("name: s\ncases:\n  - {name: a, query: q, expect: {}}\n  - {name: b, query: q, expect: {}, equivalent: false}\n"))
	require.NoError(t, err)
	assert.True(t, suite.Cases[0].WantEquivalent())
	assert.False(t, suite.Cases[1].WantEquivalent())
	assert.Len(t, suite.ID, 64)
	assert.Empty(t, suite.Dir)

	other, err := ParseSuite([]byte("name: s\ncases:\n  - {name: a, query: q, expect: {}}\n"))
	require.NoError(t, err)
	assert.NotEqual(t, suite.ID, other.ID)
}

func TestAssertRequestGolden(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	req, err := h.Compile("SELECT count(*) FROM events GROUP BY device, country TOP 10")
	require.NoError(t, err)
	AssertRequestGolden(t, "group_by_count_request", req)
}
