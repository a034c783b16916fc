package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/eventexport/internal/client/cli"
	"github.com/dmitrijs2005/eventexport/internal/client/config"
	"github.com/dmitrijs2005/eventexport/internal/common"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	err := app.Run(ctx, os.Args[1:])
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInterrupted):
			fmt.Fprintln(os.Stderr, "Interrupted by user. Exiting.")
		case errors.Is(err, common.ErrConfig):
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	stop()
	os.Exit(cli.ExitCode(err))
}
