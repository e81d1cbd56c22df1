// Package main is the MineAdmin command-line admin client. Every command
// goes through the shared HTTP client, session manager and error store;
// buffered errors are printed when the command finishes.
package main

import (
	"cmp"
	"context"
	"os"
	"os/signal"
	"syscall"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(os.Stdin, os.Stdout, os.Stderr)
	c.version = cmp.Or(version, "N/A")
	c.buildDate = cmp.Or(buildDate, "N/A")
	if err := c.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
