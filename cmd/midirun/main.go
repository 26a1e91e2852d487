package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Overridable with ldflags:
// go build -ldflags "-X main.version=1.2.3 -X main.commit=abcd123 -X main.date=2025-08-12T01:23:45Z"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	// -v is --verbose here
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(defaultDeps()).Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "midirun: %v\n", err)
		stop()
		os.Exit(1)
	}
}
