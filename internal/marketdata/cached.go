package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/store"
)

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// staleAfter is how far the newest cached bar may trail now before the cache
// is refreshed. It spans a long weekend.
const staleAfter = 4 * 24 * time.Hour

// CachedSource serves bars from a BarStore and falls back to an upstream
// Source when the store does not cover the requested window. Fetched bars are
// written through to the store.
type CachedSource struct {
	store    store.BarStore
	upstream Source
	market   string
	now      func() time.Time
	log      *slog.Logger
}

// NewCachedSource wraps upstream with the given bar store. upstream may be
// nil, in which case only cached bars are served.
func NewCachedSource(barStore store.BarStore, upstream Source, log *slog.Logger) *CachedSource {
	if log == nil {
		log = slog.Default()
	}
	return &CachedSource{
		store:    barStore,
		upstream: upstream,
		market:   string(domain.MarketUS),
		now:      time.Now,
		log:      log.With("source", "cache"),
	}
}

// FetchBars returns cached bars when they cover the lookback window,
// otherwise refreshes from upstream.
func (s *CachedSource) FetchBars(ctx context.Context, ticker string, lookback Lookback) ([]domain.Bar, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	end := s.now().UTC()
	start := lookback.Since(end)

	cached, err := s.store.ReadBars(ctx, symbol, s.market, start, end)
	if err != nil {
		s.log.Warn("reading cached bars", "symbol", symbol, "error", err)
	}
	cached = Normalize(cached)
	if s.covers(cached, start, end) || (s.upstream == nil && len(cached) > 0) {
		s.log.Debug("cache hit", "symbol", symbol, "lookback", lookback, "bars", len(cached))
		return cached, nil
	}
	if s.upstream == nil {
		return nil, fmt.Errorf("%s not cached: %w", symbol, ErrNoData)
	}

	fresh, err := s.upstream.FetchBars(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}
	if err := s.store.WriteBars(ctx, fresh); err != nil {
		// The fetch still succeeded; a failed write only costs a refetch.
		s.log.Warn("writing bars to cache", "symbol", symbol, "error", err)
	}
	return fresh, nil
}

// covers reports whether bars span [start, end] up to weekend and holiday
// gaps at either edge.
func (s *CachedSource) covers(bars []domain.Bar, start, end time.Time) bool {
	if len(bars) == 0 {
		return false
	}
	first := bars[0].Timestamp
	last := bars[len(bars)-1].Timestamp
	return first.Sub(start) <= staleAfter && end.Sub(last) <= staleAfter
}

// NewDefaultSource returns the source used by the binaries: the parquet bar
// cache under dataDir, backed by Alpaca when credentials are present.
func NewDefaultSource(dataDir string, cfg AlpacaConfig, log *slog.Logger) *CachedSource {
	var upstream Source
	if cfg.APIKey != "" && cfg.APISecret != "" {
		upstream = NewAlpacaSource(cfg)
	}
	return NewCachedSource(store.NewParquetStore(dataDir), upstream, log)
}
