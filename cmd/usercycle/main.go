// Command usercycle records lifecycle events with the USERCycle API and reads
// back stored events and people.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/otherjamesbrown/usercycle/internal/commands"
	clierrors "github.com/otherjamesbrown/usercycle/internal/errors"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := commands.NewRootCommand(fmt.Sprintf("%s (commit %s, built %s)", version, gitCommit, buildTime))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var cliErr *clierrors.CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintf(os.Stderr, "%v\n", cliErr)
			stop()
			os.Exit(cliErr.ExitCode)
		}

		// Flag parsing and other cobra errors.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(clierrors.ExitGeneral)
	}
}
