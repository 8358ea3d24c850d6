package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tradelab/internal/api"
	"tradelab/internal/config"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/strategy"
	"tradelab/internal/strategy/builtins"
	"tradelab/internal/util"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	source := marketdata.NewDefaultSource(cfg.Storage.DataDir, alpacaConfig(cfg), logger)
	bt := strategy.NewBacktester(source, builtins.NewRegistry(),
		strategy.WithLogger(logger),
		strategy.WithInitialCapital(cfg.Backtest.InitialCapital),
		strategy.WithMinBars(cfg.Backtest.MinBars),
		strategy.WithPreviewLength(cfg.Backtest.PreviewLength),
	)

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
		log.Fatalf("creating sqlite dir: %v", err)
	}
	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening run history: %v", err)
	}
	defer results.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting tradelab-server",
		"port", cfg.Server.Port,
		"grpcPort", cfg.Server.GRPCPort,
		"dataDir", cfg.Storage.DataDir,
		"alpaca", cfg.Alpaca.APIKey != "",
	)
	if err := api.NewServer(cfg, bt, results, logger).ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func alpacaConfig(cfg *config.Config) marketdata.AlpacaConfig {
	return marketdata.AlpacaConfig{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Sync.RateLimitPerMin,
		Retries:         cfg.Sync.Retries,
	}
}
