// Package main provides the LeapPivot command-line tool.
package main

import (
	"os"

	"github.com/leapstack-labs/leappivot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
