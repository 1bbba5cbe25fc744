package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"sql-playground/internal/api"
	"sql-playground/internal/app"
	"sql-playground/internal/config"
	"sql-playground/internal/observability"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger := observability.NewLogger(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := api.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateWindow())
	go limiter.Run(ctx)

	r := a.Router(limiter)
	logger.Info("listening", "address", cfg.Server.Address, "origins", cfg.Server.AllowedOrigins)
	return r.Serve(ctx, cfg.Server.Address, cfg.Server.Shutdown())
}
