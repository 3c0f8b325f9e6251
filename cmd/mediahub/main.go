package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mediahub/internal/cli"
	"mediahub/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		if utils.IsContextError(err) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
