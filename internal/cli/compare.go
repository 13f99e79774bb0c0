package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pql2/internal/request"
)

// CompareOptions holds flags for the compare command.
type CompareOptions struct {
	*RootOptions
	Hybrid bool
}

// CompareResult is the JSON payload of the compare command.
type CompareResult struct {
	Equivalent bool     `json:"equivalent"`
	Mismatches []string `json:"mismatches"`
	Uncovered  []string `json:"uncovered"`
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompareOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compare <request-a> <request-b>",
		Short: "Check two broker request files for equivalence",
		Long: `Load two broker requests (.json, .yaml, .yml or .cue) and report whether
they are equivalent.

Group-by columns compare as a multiset; filter and having trees are not
compared and are always reported as uncovered.

Exit codes:
  0 - Equivalent
  1 - Not equivalent
  2 - Command error (missing or invalid file)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Hybrid, "hybrid", false, "ignore _REALTIME/_OFFLINE table suffixes")

	return cmd
}

func runCompare(opts *CompareOptions, pathA, pathB string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	a, err := request.LoadFile(pathA)
	if err != nil {
		return f.Fail(ExitCommandError, "load request", err)
	}
	b, err := request.LoadFile(pathB)
	if err != nil {
		return f.Fail(ExitCommandError, "load request", err)
	}
	if opts.Hybrid {
		for _, r := range []*request.BrokerRequest{a, b} {
			if r.QuerySource != nil {
				r.QuerySource.TableName = request.HybridTableName(r.QuerySource.TableName)
			}
		}
	}

	cmp := request.Compare(a, b)
	result := CompareResult{Equivalent: cmp.Equivalent, Mismatches: cmp.Mismatches, Uncovered: cmp.Uncovered}
	if result.Mismatches == nil {
		result.Mismatches = []string{}
	}

	if opts.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		if cmp.Equivalent {
			fmt.Fprintf(f.Writer, "%s equivalent\n", mark(true))
		} else {
			fmt.Fprintf(f.Writer, "%s not equivalent\n", mark(false))
			fmt.Fprintf(f.Writer, "  Mismatched fields: %s\n", strings.Join(cmp.Mismatches, ", "))
		}
		fmt.Fprintf(f.Writer, "  Not compared: %s\n", strings.Join(cmp.Uncovered, ", "))
	}

	if !cmp.Equivalent {
		return NewExitError(ExitFailure, "requests are not equivalent")
	}
	return nil
}
