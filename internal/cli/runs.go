package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - show one run's case results
}

// RunDetail is the JSON payload of runs --run.
type RunDetail struct {
	Run     store.Run          `json:"run"`
	Results []store.CaseResult `json:"results"`
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded check runs",
		Long: `List the runs recorded by "pql2 check --db", oldest first.

With --run, print the case results of a single run.`,
		Example: `  pql2 runs --db runs.db
  pql2 runs --db runs.db --run 0190b6c2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show the case results of this run")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return f.FailWith(ExitCommandError, ErrCodeStore, "open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.RunID != "" {
		return showRun(ctx, f, st, opts.RunID)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return f.FailWith(ExitCommandError, ErrCodeStore, "list runs", err)
	}
	if opts.Format == "json" {
		return f.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(f.Writer, "No runs recorded.")
		return nil
	}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			strconv.FormatInt(r.Seq, 10),
			r.ID,
			r.Suite,
			fmt.Sprintf("%d/%d", r.Passed, r.Total),
			r.CreatedAt.Format(time.RFC3339),
		}
	}
	f.Table([]string{"SEQ", "RUN", "SUITE", "PASSED", "CREATED"}, rows)
	return nil
}

func showRun(ctx context.Context, f *OutputFormatter, st *store.Store, id string) error {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return f.FailWith(ExitCommandError, ErrCodeNotFound, "read run", err)
	}
	if err != nil {
		return f.FailWith(ExitCommandError, ErrCodeStore, "read run", err)
	}
	results, err := st.ReadResults(ctx, id)
	if err != nil {
		return f.FailWith(ExitCommandError, ErrCodeStore, "read results", err)
	}

	if f.Format == "json" {
		return f.Success(RunDetail{Run: run, Results: results})
	}

	fmt.Fprintf(f.Writer, "Run %s (suite %s, %d/%d passed)\n\n", run.ID, run.Suite, run.Passed, run.Total)
	rows := make([][]string, len(results))
	for i, r := range results {
		detail := strings.Join(r.Mismatches, ", ")
		if r.Error != "" {
			detail = r.Error
		}
		rows[i] = []string{mark(r.Passed), strconv.Itoa(r.Seq), r.Name, detail}
	}
	f.Table([]string{"", "SEQ", "CASE", "DETAIL"}, rows)
	return nil
}
