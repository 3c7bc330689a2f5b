// Package main is the entry point for the zparse command.
package main

import (
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		return 1
	}
	return 0
}
