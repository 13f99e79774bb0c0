package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/compiler"
	"github.com/roach88/pql2/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	TimeColumn string
}

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Render a query's broker request as SQLite SQL",
		Long: `Compile a query and render the broker request as parameterized SQLite SQL.

Filter values are printed as bound parameters, never inlined.`,
		Example:       `  pql2 sql "SELECT country, count(*) FROM events WHERE ts >= 100 GROUP BY country"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.TimeColumn, "time-column", "", "column constrained by the request's time interval")

	return cmd
}

func runSQL(opts *SQLOptions, query string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	req, err := compiler.CompileQuery(query)
	if err != nil {
		return f.Fail(ExitCommandError, "compile failed", err)
	}

	c := querysql.NewSQLCompiler()
	c.TimeColumn = opts.TimeColumn
	sql, params, err := c.Compile(req)
	if err != nil {
		return f.FailWith(ExitCommandError, ErrCodeSQL, "render SQL", err)
	}
	if params == nil {
		params = []any{}
	}

	if opts.Format == "json" {
		return f.Success(SQLResult{SQL: sql, Params: params})
	}
	fmt.Fprintln(f.Writer, sql)
	for i, p := range params {
		fmt.Fprintf(f.Writer, "  ?%d = %#v\n", i+1, p)
	}
	return nil
}
