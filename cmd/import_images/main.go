package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/meur/tiermaker/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewImportCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		stop()
		os.Exit(1)
	}
}
