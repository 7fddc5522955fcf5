// Package main is the entry point for the Usage Dashboard TUI application.
// Without a subcommand it runs the Bubble Tea program; subcommands talk to the
// analytics API directly and print plain text.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/j-veylop/usage-dashboard-tui/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires signal handling to the command context.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{out: os.Stdout, loadConfig: config.Load}
	return r.command().Run(ctx, os.Args)
}
