package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/compiler"
	"github.com/roach88/pql2/internal/ir"
	"github.com/roach88/pql2/internal/request"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the JSON payload of the compile command.
type CompilationResult struct {
	RequestID string         `json:"request_id"`
	Request   map[string]any `json:"request"`
	Issues    []string       `json:"issues,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to a broker request",
		Long: `Compile a PQL query to a broker request and print it as canonical JSON.

The request ID is the content hash of the canonical form. Requests that
fail validation are still printed; the issues are listed as warnings.`,
		Example: `  pql2 compile "SELECT count(*) FROM events GROUP BY country TOP 5"
  pql2 compile -o expected.json "SELECT a FROM t WHERE a > 5"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	req, err := compiler.CompileQuery(query)
	if err != nil {
		return f.Fail(ExitCommandError, "compile failed", err)
	}
	id, err := req.ID()
	if err != nil {
		return f.Fail(ExitCommandError, "hash request", err)
	}

	var issues []string
	for _, issue := range request.Validate(req).Issues {
		slog.Warn("request validation", "code", issue.Code, "field", issue.Field, "message", issue.Message)
		issues = append(issues, issue.String())
	}

	data, err := ir.MarshalCanonicalIndent(req.Canonical())
	if err != nil {
		return f.Fail(ExitCommandError, "marshal request", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
			return f.FailWith(ExitCommandError, ErrCodeWriteFailed, "writing output file", err)
		}
		f.VerboseLog("Wrote request to %s", opts.Output)
	}

	if opts.Format == "json" {
		return f.Success(CompilationResult{RequestID: id, Request: req.Canonical(), Issues: issues})
	}

	if opts.Output != "" {
		fmt.Fprintf(f.Writer, "%s Compiled request %s\nWrote canonical request to %s\n", mark(true), id, opts.Output)
		return nil
	}
	f.Writer.Write(data)
	return nil
}
