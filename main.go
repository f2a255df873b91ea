package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/markis/chunkstream/internal/args"
	"github.com/markis/chunkstream/internal/config"
)

// main function to load configuration, parse arguments and stream the chunks.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	a, err := args.ParseArgs(*cfg, os.Args[1:], args.PipedStdin())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	setupLogger(os.Stderr, a.Verbose)

	if err := run(ctx, a, cfg.Render.Wrap, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
