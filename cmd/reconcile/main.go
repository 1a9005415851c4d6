// Package main sweeps the identity and tracking stores for inconsistencies
// and recomputes denormalized counters.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/platform/config"
	"github.com/aftab-coresconnect/Internal-Portal-Backend/internal/tools/reconcile"
)

func main() {
	cfg, err := reconcile.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	if err := reconcile.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("Error: %v", err)
	}
}
