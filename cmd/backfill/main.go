// Package main migrates legacy unified user records into the partitioned
// identity store.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/config"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/tools/backfill"
)

func main() {
	cfg, err := backfill.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := backfill.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
