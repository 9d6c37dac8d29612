// Package main starts the verifier service process lifecycle.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	verifiercmd "github.com/louisbranch/verifier.space/internal/cmd/verifier"
	"github.com/louisbranch/verifier.space/internal/platform/config"
)

func main() {
	cfg, err := verifiercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.ConfigExitf("invalid configuration: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := verifiercmd.Run(ctx, cfg); err != nil {
		config.Exitf("failed to serve: %v", err)
	}
}
