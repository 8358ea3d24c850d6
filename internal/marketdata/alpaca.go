package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	alpacamd "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"tradelab/internal/domain"
	"tradelab/internal/util"
)

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaConfig configures an AlpacaSource.
type AlpacaConfig struct {
	APIKey          string
	APISecret       string
	DataURL         string
	Feed            string
	RateLimitPerMin int
	Retries         int
	RetryDelay      time.Duration
}

// barFetcher is the slice of the Alpaca market-data client used here.
type barFetcher interface {
	GetBars(symbol string, req alpacamd.GetBarsRequest) ([]alpacamd.Bar, error)
}

// AlpacaSource fetches split- and dividend-adjusted daily bars from the
// Alpaca market-data API.
type AlpacaSource struct {
	client     barFetcher
	feed       string
	limiter    *util.RateLimiter
	retries    int
	retryDelay time.Duration
	now        func() time.Time
	log        *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource from cfg.
func NewAlpacaSource(cfg AlpacaConfig) *AlpacaSource {
	opts := alpacamd.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	}
	if cfg.DataURL != "" {
		opts.BaseURL = cfg.DataURL
	}
	return newAlpacaSource(alpacamd.NewClient(opts), cfg)
}

func newAlpacaSource(client barFetcher, cfg AlpacaConfig) *AlpacaSource {
	feed := cfg.Feed
	if feed == "" {
		feed = "iex"
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &AlpacaSource{
		client:     client,
		feed:       feed,
		limiter:    util.NewRateLimiter(cfg.RateLimitPerMin),
		retries:    retries,
		retryDelay: delay,
		now:        time.Now,
		log:        slog.Default().With("source", "alpaca"),
	}
}

// FetchBars returns the daily bars of ticker from now minus lookback to now.
// Transient API failures are retried with exponential backoff.
func (s *AlpacaSource) FetchBars(ctx context.Context, ticker string, lookback Lookback) ([]domain.Bar, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	end := s.now().UTC()
	start := lookback.Since(end)

	var raw []alpacamd.Bar
	err := util.Retry(ctx, s.retries, s.retryDelay, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		var err error
		raw, err = s.client.GetBars(symbol, alpacamd.GetBarsRequest{
			TimeFrame:  alpacamd.OneDay,
			Adjustment: alpacamd.All,
			Start:      start,
			End:        end,
			Feed:       s.feed,
		})
		if err != nil {
			s.log.Warn("GetBars failed", "symbol", symbol, "error", err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s over %s: %w", symbol, lookback, ErrNoData)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	s.log.Debug("fetched bars", "symbol", symbol, "lookback", lookback, "bars", len(bars))
	return Normalize(bars), nil
}
