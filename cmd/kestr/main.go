// Package main provides the entry point for the kestr CLI.
package main

import (
	"os"

	"github.com/kestr-dev/kestr/cmd/kestr/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
