package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/linkrun/internal/cmd"
	"github.com/felixgeelhaar/linkrun/internal/exitcode"
	"github.com/felixgeelhaar/linkrun/internal/ux"
)

func main() {
	// The recorded command receives the terminal's signals itself; linkrun
	// only needs to notice that it was interrupted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() == context.Canceled {
			ux.NewStyles(false).Status(os.Stderr, false, "interrupted")
			exitcode.Exit(exitcode.Interrupted)
		}

		ux.PrintError(os.Stderr, err, ux.NewStyles(false))
		exitcode.ExitWithError(err)
	}
	exitcode.Exit(exitcode.Success)
}
