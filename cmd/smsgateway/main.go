// Package main is the entrypoint for the SMS gateway service.
// It exposes the configured SMS provider over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aelexs/smsgateway/internal/config"
	"github.com/aelexs/smsgateway/internal/server"
)

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:           "smsgateway",
		PortFromConfig: func(cfg *config.Config) int { return cfg.Server.HTTPPort },
	}, nil)
}
