package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dvloznov/budgetrak/internal/app"
	"github.com/dvloznov/budgetrak/internal/config"
	"github.com/dvloznov/budgetrak/internal/logger"
	"github.com/dvloznov/budgetrak/internal/tools"
)

const (
	serverName    = "BudgetTrak"
	serverVersion = "0.3.0"
)

func main() {
	envFile := flag.String("env-file", "", "Path to a .env file (defaults to BUDGETRAK_ENV_FILE or .env)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Stdout carries the protocol; the logger writes to stderr.
	log := logger.NewWithLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	d := a.Tools().NewDispatcher()
	srv := tools.NewMCPServer(d, serverName, serverVersion)

	log.Info().
		Int("tools", len(d.Tools())).
		Str("ledger", cfg.LedgerBackend).
		Msg("Serving tools on stdio")

	if err := tools.ServeStdio(ctx, srv, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Server stopped")
		return
	}
	log.Info().Msg("Server exited")
}
