// Package main provides the RosterDQ command-line interface.
package main

import (
	"os"

	"github.com/leapstack-labs/rosterdq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
