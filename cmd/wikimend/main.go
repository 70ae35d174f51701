// Package main provides the entry point for the wikimend CLI.
package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/wikimend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
