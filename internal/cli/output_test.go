package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pql2/internal/builder"
	"github.com/roach88/pql2/internal/compiler"
	"github.com/roach88/pql2/internal/request"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "inner", errors.New("cause")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "bad", NewExitError(ExitFailure, "bad").Error())

	cause := errors.New("cause")
	err := WrapExitError(ExitCommandError, "load", cause)
	assert.Equal(t, "load: cause", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorCode(t *testing.T) {
	_, syntaxErr := compiler.CompileQuery("SELECT * FROM")
	_, literalErr := builder.Parse("SELECT * FROM t LIMIT 99999999999999999999")
	_, compileErr := compiler.CompileQuery("SELECT a FROM t GROUP BY a")

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"syntax", syntaxErr, ErrCodeSyntax},
		{"literal", literalErr, ErrCodeLiteral},
		{"compile", compileErr, ErrCodeCompile},
		{"not found", fmt.Errorf("open: %w", fs.ErrNotExist), ErrCodeNotFound},
		{"load", &request.LoadError{Path: "x.json", Err: errors.New("bad")}, ErrCodeLoadFailed},
		{"generic", errors.New("other"), ErrCodeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

func TestOutputFormatter_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	require.NoError(t, f.Success(map[string]string{"query": "a < b & c"}))
	resp := decodeResponse(t, buf.String())
	assert.Equal(t, "ok", resp.Status)
	assert.Contains(t, buf.String(), "a < b & c", "HTML is not escaped")

	buf.Reset()
	err := f.FailWith(ExitCommandError, ErrCodeStore, "open database", errors.New("locked"))
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	resp = decodeResponse(t, buf.String())
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeStore, resp.Error.Code)
	assert.Equal(t, "open database: locked", resp.Error.Message)
}

func TestOutputFormatter_Text(t *testing.T) {
	var out, errOut bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &out, ErrWriter: &errOut}

	require.NoError(t, f.Error(ErrCodeSyntax, "parse failed", nil))
	assert.Equal(t, "Error [E002]: parse failed\n", out.String())

	f.VerboseLog("hidden")
	assert.Empty(t, errOut.String())
	f.Verbose = true
	f.VerboseLog("shown %d", 1)
	assert.Equal(t, "shown 1\n", errOut.String())
}

func TestOutputFormatter_Table(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}
	f.Table([]string{"CASE", "RESULT"}, [][]string{{"first", mark(true)}, {"second", mark(false)}})

	out := buf.String()
	assert.Contains(t, out, "CASE")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗")
}
