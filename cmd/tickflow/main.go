// Command tickflow compiles, runs and tests tickflow plans.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/tickflow/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "tickflow:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
