// Command statkeys annotates cluster statistics keys with tags and
// categories and builds a browsable key catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/statkeys/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		code := cli.GetExitCode(err)
		// Commands report their own failures; usage errors from cobra
		// still need printing.
		if !cli.IsExitError(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
			code = cli.ExitCommandError
		}
		stop()
		os.Exit(code)
	}
}
