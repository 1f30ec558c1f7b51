package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mini-wallet/mini_wallet/internal/cli"
	"github.com/mini-wallet/mini_wallet/internal/client"
	"github.com/mini-wallet/mini_wallet/internal/config"
	"github.com/mini-wallet/mini_wallet/internal/logging"
	"github.com/mini-wallet/mini_wallet/internal/session"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	sessions := session.NewStore(cfg.StateDir)

	api := client.New(cfg, sessions, logger, client.WithUnauthorizedHook(func() {
		if err := sessions.Clear(); err != nil {
			logger.Warn("clear session", "error", err)
		}
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shell := cli.New(api, sessions, os.Stdin, os.Stdout, logger)
	if err := shell.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "wallet: %v\n", err)
		os.Exit(1)
	}
}
