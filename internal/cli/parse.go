package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/builder"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Parse a query and print its syntax tree",
		Long: `Parse a PQL query and print the rewritten syntax tree.

Boolean chains are flattened and redundant groups removed, so the tree
shows what the compiler sees.`,
		Example: `  pql2 parse "SELECT a FROM t WHERE a = 1 AND b = 2 AND c = 3"
  pql2 parse --format json "SELECT count(*) FROM t GROUP BY a"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}
}

func runParse(opts *RootOptions, query string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	tree, err := builder.Parse(query)
	if err != nil {
		return f.Fail(ExitCommandError, "parse failed", err)
	}
	f.VerboseLog("Parsed %d node(s)", tree.Len())

	if opts.Format == "json" {
		return f.Success(tree.Snapshot())
	}
	fmt.Fprint(f.Writer, tree.String())
	return nil
}
