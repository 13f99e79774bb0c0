package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "parse", "SELECT * FROM t")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestRoot_RegistersCommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"parse", "compile", "sql", "compare", "check", "runs"} {
		assert.Contains(t, names, want)
	}
}

func TestRoot_ArgumentErrorsAreCommandErrors(t *testing.T) {
	_, _, err := execute(t, "compile")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "-v", "parse", "SELECT * FROM t")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Parsed")
	assert.NotContains(t, stdout, "Parsed")
}
