package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pql2/internal/request"
	"github.com/roach88/pql2/internal/store"
)

func testdata(name string) string {
	return filepath.Join("testdata", name)
}

func TestParse_Text(t *testing.T) {
	stdout, _, err := execute(t, "parse", "SELECT count(*) FROM events")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, "Select", lines[0])
	assert.Contains(t, stdout, "FunctionCall name=count")
	assert.Contains(t, stdout, "TableName name=events")
}

func TestParse_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "parse", "SELECT a FROM t")
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Select", data["kind"])
	assert.NotEmpty(t, data["children"])
}

func TestParse_SyntaxError(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "parse", "SELECT * FROM")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeSyntax, resp.Error.Code)
}

func TestCompile_Text(t *testing.T) {
	stdout, _, err := execute(t, "compile", "SELECT count(*) FROM events GROUP BY country, device TOP 10")
	require.NoError(t, err)

	req, err := request.Decode("stdout.json", []byte(stdout), request.FormatJSON)
	require.NoError(t, err)
	want, err := request.LoadFile(testdata("group_by.json"))
	require.NoError(t, err)
	assert.True(t, request.AreEquivalent(want, req))
	assert.True(t, strings.HasSuffix(stdout, "}\n"))
}

func TestCompile_JSONIncludesRequestID(t *testing.T) {
	query := "SELECT a FROM t WHERE a > 5"
	stdout, _, err := execute(t, "--format", "json", "compile", query)
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	id, _ := data["request_id"].(string)
	assert.Len(t, id, 64)
	assert.Contains(t, data, "request")

	again, _, err := execute(t, "--format", "json", "compile", query)
	require.NoError(t, err)
	assert.Equal(t, stdout, again, "compile output is deterministic")
}

func TestCompile_WritesOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expected.json")
	stdout, _, err := execute(t, "compile", "-o", path, "SELECT a, b FROM events ORDER BY a LIMIT 20")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote canonical request to "+path)

	req, err := request.LoadFile(path)
	require.NoError(t, err)
	require.NotNil(t, req.Selections)
	assert.Equal(t, []string{"a", "b"}, req.Selections.Columns)
}

func TestCompile_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "expected.json")
	stdout, _, err := execute(t, "--format", "json", "compile", "-o", path, "SELECT a FROM t")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeWriteFailed, decodeResponse(t, stdout).Error.Code)
}

func TestCompile_CompileError(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "compile", "SELECT a FROM t GROUP BY a")
	require.Error(t, err)
	assert.Equal(t, ErrCodeCompile, decodeResponse(t, stdout).Error.Code)
}

func TestSQL_Text(t *testing.T) {
	stdout, _, err := execute(t, "sql", "SELECT a FROM events WHERE a = 'x' LIMIT 3")
	require.NoError(t, err)
	assert.Contains(t, stdout, `SELECT "a" FROM "events" WHERE "a" = ? ORDER BY rowid ASC LIMIT ?`)
	assert.Contains(t, stdout, `?1 = "x"`)
	assert.Contains(t, stdout, `?2 = 3`)
}

func TestSQL_JSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "sql", "SELECT count(*) FROM events")
	require.NoError(t, err)

	data, ok := decodeResponse(t, stdout).Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, `SELECT COUNT(*) FROM "events"`, data["sql"])
	assert.Equal(t, []any{}, data["params"])
}

func TestCompare_Equivalent(t *testing.T) {
	stdout, _, err := execute(t, "compare", "--hybrid", testdata("group_by.json"), testdata("group_by_reordered.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ equivalent")
	assert.Contains(t, stdout, "Not compared: filter_query, having")
}

func TestCompare_HybridSuffixMatters(t *testing.T) {
	stdout, _, err := execute(t, "compare", testdata("group_by.json"), testdata("group_by_reordered.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "Mismatched fields: query_source")
}

func TestCompare_NotEquivalentJSON(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "compare", testdata("group_by.json"), testdata("group_by_top5.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	data, ok := decodeResponse(t, stdout).Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["equivalent"])
	assert.Equal(t, []any{request.FieldGroupBy}, data["mismatches"])
	assert.Equal(t, []any{request.FieldFilterQuery, request.FieldHaving}, data["uncovered"])
}

func TestCompare_MissingFile(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "compare", testdata("group_by.json"), testdata("absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, stdout).Error.Code)
}

func TestCheck_Passing(t *testing.T) {
	stdout, _, err := execute(t, "check", testdata("passing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Suite passing")
	assert.Contains(t, stdout, "group_by_order_ignored")
	assert.Contains(t, stdout, "2 passed, 0 failed, 2 total")
}

func TestCheck_FailingExitsOne(t *testing.T) {
	stdout, _, err := execute(t, "--format", "json", "check", testdata("failing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	data, ok := decodeResponse(t, stdout).Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), data["passed"])
	assert.Equal(t, float64(1), data["failed"])
	cases := data["cases"].([]any)
	failed := cases[1].(map[string]any)
	assert.Equal(t, "wrong_top_n", failed["name"])
	assert.Equal(t, false, failed["passed"])
	assert.Equal(t, []any{request.FieldGroupBy}, failed["mismatches"])
}

func TestCheck_InvalidSuite(t *testing.T) {
	_, _, err := execute(t, "check", testdata("broken.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheck_RecordsRunAndListsIt(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")

	stdout, _, err := execute(t, "check", "--db", db, testdata("passing.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Recorded run ")

	_, _, err = execute(t, "check", "--db", db, testdata("failing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	st, err := store.Open(db)
	require.NoError(t, err)
	runs, err := st.ListRuns(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, runs, 2)
	assert.Equal(t, "passing", runs[0].Suite)
	assert.Equal(t, 2, runs[0].Passed)
	assert.Equal(t, "failing", runs[1].Suite)
	assert.Equal(t, 1, runs[1].Failed)

	stdout, _, err = execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, stdout, runs[0].ID)
	assert.Contains(t, stdout, runs[1].ID)
	assert.Less(t, strings.Index(stdout, runs[0].ID), strings.Index(stdout, runs[1].ID))

	stdout, _, err = execute(t, "--format", "json", "runs", "--db", db, "--run", runs[1].ID)
	require.NoError(t, err)
	detail, ok := decodeResponse(t, stdout).Data.(map[string]any)
	require.True(t, ok)
	results := detail["results"].([]any)
	require.Len(t, results, 2)
	second := results[1].(map[string]any)
	assert.Equal(t, "wrong_top_n", second["name"])
	assert.Equal(t, float64(2), second["seq"])
	assert.Equal(t, false, second["passed"])
}

func TestRuns_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	stdout, _, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestRuns_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	stdout, _, err := execute(t, "--format", "json", "runs", "--db", db, "--run", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeNotFound, decodeResponse(t, stdout).Error.Code)
}

func TestRuns_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "runs")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
