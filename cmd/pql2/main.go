// Command pql2 parses PQL queries, compiles them to broker requests and
// checks compiled requests against expected ones.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/pql2/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil && !isReported(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}

// isReported reports whether a command already printed err through its
// output formatter.
func isReported(err error) bool {
	var exitErr *cli.ExitError
	return errors.As(err, &exitErr)
}
