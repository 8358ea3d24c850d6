package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"tradelab/internal/config"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/util"
)

func main() {
	lookbackFlag := flag.String("lookback", "", "history window to fetch: 1mo, 3mo, 6mo, 1y, 2y or 5y (default from config)")
	tickersFlag := flag.String("tickers", "", "comma-separated tickers (default from config)")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("alpaca credentials are required (APCA_API_KEY_ID / APCA_API_SECRET_KEY)")
	}

	lookback := marketdata.Lookback(cfg.Sync.Lookback)
	if *lookbackFlag != "" {
		lookback = marketdata.Lookback(*lookbackFlag)
	}
	if !lookback.Valid() {
		log.Fatalf("invalid lookback %q", lookback)
	}

	tickers := cfg.Sync.Tickers
	if *tickersFlag != "" {
		tickers = strings.Split(*tickersFlag, ",")
	}
	tickers = append(tickers, flag.Args()...)
	if len(tickers) == 0 {
		log.Fatal("no tickers to sync")
	}

	source := marketdata.NewAlpacaSource(marketdata.AlpacaConfig{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Sync.RateLimitPerMin,
		Retries:         cfg.Sync.Retries,
	})
	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting tradelab-sync", "tickers", len(tickers), "lookback", lookback, "workers", cfg.Sync.MaxWorkers)
	synced, failed := syncAll(ctx, source, pstore, tickers, lookback, cfg.Sync.MaxWorkers)
	slog.Info("sync complete", "synced", synced, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// syncAll fetches every ticker and writes its bars to the store. Failures are
// logged per ticker and do not stop the others.
func syncAll(ctx context.Context, source marketdata.Source, bars store.BarStore, tickers []string, lookback marketdata.Lookback, workers int) (synced, failed int64) {
	var ok, bad atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(t))
		if ticker == "" {
			continue
		}
		g.Go(func() error {
			fetched, err := source.FetchBars(ctx, ticker, lookback)
			if err == nil {
				err = bars.WriteBars(ctx, fetched)
			}
			if err != nil {
				slog.Warn("sync failed", "ticker", ticker, "error", err)
				bad.Add(1)
				return nil
			}
			slog.Info("synced", "ticker", ticker, "bars", len(fetched))
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return ok.Load(), bad.Load()
}
