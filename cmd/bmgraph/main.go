// Command bmgraph builds term co-occurrence graphs, stores them in SQLite and
// explores them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/bmgraph/internal/cli"
	"github.com/roach88/bmgraph/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
