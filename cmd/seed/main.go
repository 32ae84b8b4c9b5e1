package main

import (
	"fmt"
	"os"

	"github.com/meur/tiermaker/internal/cli"
)

func main() {
	if err := cli.NewSeedCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}
