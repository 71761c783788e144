// Command fixaccept selects FIX session acceptance scenarios and runs
// them through an external interpreter.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fixaccept/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
