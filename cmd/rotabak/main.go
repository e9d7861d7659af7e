package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/severin-lang/rotabak/cmd"
	"github.com/severin-lang/rotabak/pkg/rlog"
)

func main() {
	// Interrupt cancels the run context; in-flight stages finish their
	// current item and the reporter still runs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		rlog.Error("rotabak exited with error", "error", err)
		os.Exit(1)
	}
}
