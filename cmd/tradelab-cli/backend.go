package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"tradelab/internal/api"
	"tradelab/internal/config"
	"tradelab/internal/marketdata"
	"tradelab/internal/store"
	"tradelab/internal/strategy"
	"tradelab/internal/strategy/builtins"
	"tradelab/internal/util"
	"tradelab/pkg/tradelab"
)

// backend runs commands either against a server or in-process.
type backend interface {
	Strategies(ctx context.Context) ([]string, error)
	Run(ctx context.Context, req tradelab.BacktestRequest) (*tradelab.BacktestResult, error)
	Compare(ctx context.Context, ticker, startDate, endDate string) (*tradelab.Comparison, error)
	History(ctx context.Context, limit int) ([]tradelab.RunSummary, error)
	Close() error
}

func newBackend() (backend, error) {
	if !local {
		if grpcAddr != "" {
			c, err := api.Dial(grpcAddr)
			if err != nil {
				return nil, err
			}
			return &grpcBackend{client: c, http: tradelab.NewClient(serverURL)}, nil
		}
		return &remoteBackend{client: tradelab.NewClient(serverURL)}, nil
	}

	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if os.IsNotExist(err) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := util.NewLogger("warn", "text")
	source := marketdata.NewDefaultSource(cfg.Storage.DataDir, marketdata.AlpacaConfig{
		APIKey:          cfg.Alpaca.APIKey,
		APISecret:       cfg.Alpaca.APISecret,
		DataURL:         cfg.Alpaca.DataURL,
		Feed:            cfg.Alpaca.Feed,
		RateLimitPerMin: cfg.Sync.RateLimitPerMin,
		Retries:         cfg.Sync.Retries,
	}, logger)
	bt := strategy.NewBacktester(source, builtins.NewRegistry(),
		strategy.WithLogger(logger),
		strategy.WithInitialCapital(cfg.Backtest.InitialCapital),
		strategy.WithMinBars(cfg.Backtest.MinBars),
		strategy.WithPreviewLength(cfg.Backtest.PreviewLength),
	)
	return &localBackend{bt: bt, sqlitePath: cfg.Storage.SQLitePath}, nil
}

// ---------------------------------------------------------------------------
// Remote
// ---------------------------------------------------------------------------

type remoteBackend struct {
	client *tradelab.Client
}

func (b *remoteBackend) Strategies(ctx context.Context) ([]string, error) {
	return b.client.Strategies(ctx)
}

func (b *remoteBackend) Run(ctx context.Context, req tradelab.BacktestRequest) (*tradelab.BacktestResult, error) {
	return b.client.Backtest(ctx, req)
}

func (b *remoteBackend) Compare(ctx context.Context, ticker, startDate, endDate string) (*tradelab.Comparison, error) {
	return b.client.Compare(ctx, ticker, startDate, endDate)
}

func (b *remoteBackend) History(ctx context.Context, limit int) ([]tradelab.RunSummary, error) {
	return b.client.Results(ctx, limit)
}

func (b *remoteBackend) Close() error { return nil }

// ---------------------------------------------------------------------------
// gRPC
// ---------------------------------------------------------------------------

// grpcBackend runs backtests over the gRPC service. Run history is only
// served over HTTP, so History goes through the SDK.
type grpcBackend struct {
	client *api.Client
	http   *tradelab.Client
}

func (b *grpcBackend) Strategies(ctx context.Context) ([]string, error) {
	return b.client.Strategies(ctx)
}

func (b *grpcBackend) Run(ctx context.Context, req tradelab.BacktestRequest) (*tradelab.BacktestResult, error) {
	res, err := b.client.Run(ctx, strategy.Request{
		Ticker:         req.Ticker,
		Strategy:       req.Strategy,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		return nil, err
	}
	var out tradelab.BacktestResult
	return &out, convert(res, &out)
}

func (b *grpcBackend) Compare(ctx context.Context, ticker, startDate, endDate string) (*tradelab.Comparison, error) {
	cmp, err := b.client.Compare(ctx, ticker, startDate, endDate)
	if err != nil {
		return nil, err
	}
	var out tradelab.Comparison
	return &out, convert(cmp, &out)
}

func (b *grpcBackend) History(ctx context.Context, limit int) ([]tradelab.RunSummary, error) {
	return b.http.Results(ctx, limit)
}

func (b *grpcBackend) Close() error { return b.client.Close() }

// ---------------------------------------------------------------------------
// Local
// ---------------------------------------------------------------------------

type localBackend struct {
	bt         *strategy.Backtester
	sqlitePath string
}

func (b *localBackend) Strategies(_ context.Context) ([]string, error) {
	return b.bt.Registry().Ordered(), nil
}

func (b *localBackend) Run(ctx context.Context, req tradelab.BacktestRequest) (*tradelab.BacktestResult, error) {
	res, err := b.bt.Run(ctx, strategy.Request{
		Ticker:         req.Ticker,
		Strategy:       req.Strategy,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		return nil, err
	}
	var out tradelab.BacktestResult
	return &out, convert(res, &out)
}

func (b *localBackend) Compare(ctx context.Context, ticker, startDate, endDate string) (*tradelab.Comparison, error) {
	cmp, err := b.bt.Compare(ctx, ticker, startDate, endDate)
	if err != nil {
		return nil, err
	}
	var out tradelab.Comparison
	return &out, convert(cmp, &out)
}

// History reads the run history the server keeps in SQLite.
func (b *localBackend) History(ctx context.Context, limit int) ([]tradelab.RunSummary, error) {
	if _, err := os.Stat(b.sqlitePath); err != nil {
		return nil, fmt.Errorf("no run history at %s: %w", filepath.Clean(b.sqlitePath), err)
	}
	db, err := store.NewSQLiteStore(b.sqlitePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	recs, err := db.ListResults(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]tradelab.RunSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, tradelab.RunSummary{
			ID:          r.ID,
			Ticker:      r.Ticker,
			Strategy:    r.Strategy,
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
			TotalReturn: r.TotalReturn,
			SharpeRatio: r.SharpeRatio,
			MaxDrawdown: r.MaxDrawdown,
			WinRate:     r.WinRate,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

func (b *localBackend) Close() error { return nil }

// convert moves an engine payload into the SDK type through its JSON form.
func convert(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func runRequest(c *cli.Context) tradelab.BacktestRequest {
	return tradelab.BacktestRequest{
		Ticker:         c.Args().Get(0),
		Strategy:       c.Args().Get(1),
		StartDate:      c.Args().Get(2),
		EndDate:        c.Args().Get(3),
		InitialCapital: c.Float64("capital"),
	}
}
