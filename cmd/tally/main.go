// Package main provides the entry point for the tally CLI.
package main

import (
	"fmt"
	"os"

	"github.com/PipeManMusic/Talus-Tally-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
