package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/harness"
	"github.com/roach88/pql2/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Database string
}

// CheckCase is one case in the check command's JSON output.
type CheckCase struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Expected   bool     `json:"expected"`
	Equivalent bool     `json:"equivalent"`
	Mismatches []string `json:"mismatches,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Suite  string      `json:"suite"`
	RunID  string      `json:"run_id,omitempty"`
	Cases  []CheckCase `json:"cases"`
	Passed int         `json:"passed"`
	Failed int         `json:"failed"`
	Total  int         `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <suite.yaml>",
		Short: "Run a validation suite",
		Long: `Compile every query in a suite and compare it with the expected request.

With --db the run and its per-case results are recorded in a SQLite
database; list them with "pql2 runs".

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid suite, database error, etc.)`,
		Example: `  pql2 check suites/smoke.yaml
  pql2 check suites/smoke.yaml --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")

	return cmd
}

func runCheck(opts *CheckOptions, suitePath string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	suite, err := harness.LoadSuite(suitePath)
	if err != nil {
		return f.Fail(ExitCommandError, "load suite", err)
	}

	h, err := harness.New(harness.WithLogger(slog.Default()))
	if err != nil {
		return f.Fail(ExitCommandError, "create harness", err)
	}
	result, err := h.Run(ctx, suite)
	if err != nil {
		return f.Fail(ExitCommandError, "run suite", err)
	}

	out := CheckResult{
		Suite:  result.Suite,
		Cases:  make([]CheckCase, 0, len(result.Cases)),
		Passed: result.Passed(),
		Failed: result.Failed(),
		Total:  len(result.Cases),
	}
	for _, c := range result.Cases {
		cc := CheckCase{Name: c.Name, Passed: c.Passed(), Expected: c.Expected, Equivalent: c.Equivalent, Mismatches: c.Mismatches}
		if c.Err != nil {
			cc.Error = c.Err.Error()
		}
		out.Cases = append(out.Cases, cc)
	}

	if opts.Database != "" {
		run, err := recordRun(ctx, opts.Database, result)
		if err != nil {
			return f.FailWith(ExitCommandError, ErrCodeStore, "record run", err)
		}
		out.RunID = run.ID
		f.VerboseLog("Recorded run %s in %s", run.ID, opts.Database)
	}

	if opts.Format == "json" {
		if err := f.Success(out); err != nil {
			return err
		}
	} else {
		outputCheckText(f, out)
	}

	if out.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d case(s) failed", out.Failed, out.Total))
	}
	return nil
}

func outputCheckText(f *OutputFormatter, out CheckResult) {
	rows := make([][]string, 0, len(out.Cases))
	for _, c := range out.Cases {
		detail := strings.Join(c.Mismatches, ", ")
		if c.Error != "" {
			detail = c.Error
		}
		rows = append(rows, []string{mark(c.Passed), c.Name, verdictText(c.Expected), verdictText(c.Equivalent), detail})
	}
	fmt.Fprintf(f.Writer, "Suite %s\n\n", out.Suite)
	f.Table([]string{"", "CASE", "EXPECTED", "ACTUAL", "DETAIL"}, rows)
	fmt.Fprintf(f.Writer, "\n%d passed, %d failed, %d total\n", out.Passed, out.Failed, out.Total)
	if out.RunID != "" {
		fmt.Fprintf(f.Writer, "Recorded run %s\n", out.RunID)
	}
}

func verdictText(equivalent bool) string {
	if equivalent {
		return "equivalent"
	}
	return "different"
}

func recordRun(ctx context.Context, path string, result *harness.Result) (store.Run, error) {
	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	results := make([]store.CaseResult, len(result.Cases))
	for i, c := range result.Cases {
		results[i] = store.CaseResult{
			Name:       c.Name,
			Query:      c.Query,
			RequestID:  c.RequestID,
			Expected:   c.Expected,
			Equivalent: c.Equivalent,
			Passed:     c.Passed(),
			Mismatches: c.Mismatches,
			Uncovered:  c.Uncovered,
		}
		if c.Err != nil {
			results[i].Error = c.Err.Error()
		}
	}
	return st.WriteRun(ctx, store.Run{Suite: result.Suite, SuiteID: result.SuiteID}, results)
}
