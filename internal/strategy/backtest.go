package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tradelab/internal/domain"
	"tradelab/internal/indicator"
	"tradelab/internal/marketdata"
	"tradelab/internal/performance"
	"tradelab/internal/util"
)

const (
	// DefaultInitialCapital applies unless WithInitialCapital overrides it.
	DefaultInitialCapital = 10000.0

	// DefaultMinBars is the fewest bars a backtest will run on.
	DefaultMinBars = 30

	// DefaultPreviewLength caps the per-bar series copied into a Result.
	DefaultPreviewLength = 100
)

// Request describes a single backtest run.
type Request struct {
	Ticker         string  `json:"ticker"`
	Strategy       string  `json:"strategy"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	InitialCapital float64 `json:"initial_capital,omitempty"`
}

// Result is the payload of a successful backtest. DailyReturns, EquityCurve
// and Signals hold only the leading bars of the run.
type Result struct {
	Ticker           string    `json:"ticker"`
	Strategy         string    `json:"strategy"`
	StartDate        string    `json:"start_date"`
	EndDate          string    `json:"end_date"`
	InitialCapital   float64   `json:"initial_capital"`
	FinalCapital     float64   `json:"final_capital"`
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	Volatility       float64   `json:"volatility"`
	WinRate          float64   `json:"win_rate"`
	Trades           int       `json:"trades"`
	DailyReturns     []float64 `json:"daily_returns"`
	EquityCurve      []float64 `json:"equity_curve"`
	Signals          []string  `json:"signals"`
}

// StrategyMetrics is the per-strategy summary reported by Compare.
type StrategyMetrics struct {
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
}

// RankedStrategy is one entry of a comparison ranking. It encodes as a JSON
// pair: ["momentum", {...metrics}].
type RankedStrategy struct {
	Name    string
	Metrics StrategyMetrics
}

func (r RankedStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Name, r.Metrics})
}

func (r *RankedStrategy) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranked strategy: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &r.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &r.Metrics)
}

// Comparison is the result of running every registered strategy over the
// same bars.
type Comparison struct {
	Ticker           string                     `json:"ticker"`
	Period           string                     `json:"period"`
	StrategyResults  map[string]StrategyMetrics `json:"strategy_results"`
	RankedStrategies []RankedStrategy           `json:"ranked_strategies"`
	BestStrategy     string                     `json:"best_strategy"`
}

// Option configures a Backtester.
type Option func(*Backtester)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(bt *Backtester) {
		if log != nil {
			bt.log = log
		}
	}
}

// WithMinBars sets the fewest bars a run accepts after date filtering.
func WithMinBars(n int) Option {
	return func(bt *Backtester) {
		if n > 0 {
			bt.minBars = n
		}
	}
}

// WithInitialCapital sets the capital used when a request leaves it unset
// and for every strategy in a comparison.
func WithInitialCapital(c float64) Option {
	return func(bt *Backtester) {
		if c > 0 {
			bt.capital = c
		}
	}
}

// WithPreviewLength sets how many leading bars of each per-bar series are
// copied into a Result.
func WithPreviewLength(n int) Option {
	return func(bt *Backtester) {
		if n > 0 {
			bt.previewLen = n
		}
	}
}

// Backtester fetches price history from a Source and runs registered
// strategies over it. It holds no per-run state and is safe for concurrent
// use.
type Backtester struct {
	source     marketdata.Source
	registry   *Registry
	capital    float64
	minBars    int
	previewLen int
	log        *slog.Logger
}

// NewBacktester creates a Backtester that reads bars from source and looks up
// strategies in registry.
func NewBacktester(source marketdata.Source, registry *Registry, opts ...Option) *Backtester {
	bt := &Backtester{
		source:     source,
		registry:   registry,
		capital:    DefaultInitialCapital,
		minBars:    DefaultMinBars,
		previewLen: DefaultPreviewLength,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(bt)
	}
	return bt
}

// Registry returns the strategies available to Run.
func (bt *Backtester) Registry() *Registry { return bt.registry }

// Run backtests one strategy over [req.StartDate, req.EndDate]. Failures are
// returned as *Error.
func (bt *Backtester) Run(ctx context.Context, req Request) (*Result, error) {
	s, ok := bt.registry.Get(req.Strategy)
	if !ok {
		return nil, newError(KindInvalidStrategy, "unknown strategy %q", req.Strategy)
	}
	capital := req.InitialCapital
	if capital == 0 {
		capital = bt.capital
	}
	if !(capital > 0) {
		return nil, newError(KindInvalidInput, "initial capital must be positive, got %v", capital)
	}

	ticker, start, end, err := parseWindow(req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	bars, err := bt.loadBars(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	sim, err := Simulate(bars, indicator.Compute(bars), s, capital)
	if err != nil {
		return nil, err
	}
	m := performance.Analyze(sim.EquityCurve, sim.DailyReturns, sim.Trades)

	bt.log.Info("backtest complete",
		"ticker", ticker,
		"strategy", s.Name(),
		"bars", len(bars),
		"trades", m.TradeCount,
		"total_return", m.TotalReturn,
	)
	return &Result{
		Ticker:           ticker,
		Strategy:         s.Name(),
		StartDate:        util.FormatDate(start),
		EndDate:          util.FormatDate(end),
		InitialCapital:   m.InitialCapital,
		FinalCapital:     m.FinalCapital,
		TotalReturn:      m.TotalReturn,
		AnnualizedReturn: m.AnnualizedReturn,
		SharpeRatio:      m.SharpeRatio,
		MaxDrawdown:      m.MaxDrawdown,
		Volatility:       m.Volatility,
		WinRate:          m.WinRate,
		Trades:           m.TradeCount,
		DailyReturns:     head(sim.DailyReturns, bt.previewLen),
		EquityCurve:      head(sim.EquityCurve, bt.previewLen),
		Signals:          signalNames(head(sim.Signals, bt.previewLen)),
	}, nil
}

// outcome is the per-strategy result of a comparison: either metrics or the
// error that excluded the strategy.
type outcome struct {
	name    string
	metrics StrategyMetrics
	err     error
}

// Compare runs every registered strategy over the same bars and ranks them
// by Sharpe ratio, best first. A strategy that fails is left out of the
// ranking. Only malformed input fails the whole comparison.
func (bt *Backtester) Compare(ctx context.Context, ticker, startDate, endDate string) (*Comparison, error) {
	ticker, start, end, err := parseWindow(ticker, startDate, endDate)
	if err != nil {
		return nil, err
	}

	names := bt.registry.Ordered()
	outcomes := make([]outcome, len(names))

	bars, fetchErr := bt.loadBars(ctx, ticker, start, end)
	if fetchErr != nil {
		for i, name := range names {
			outcomes[i] = outcome{name: name, err: fetchErr}
		}
	} else {
		ind := indicator.Compute(bars)
		var g errgroup.Group
		for i, name := range names {
			g.Go(func() error {
				outcomes[i] = bt.evaluate(name, bars, ind)
				return nil
			})
		}
		_ = g.Wait()
	}

	cmp := &Comparison{
		Ticker:           ticker,
		Period:           util.FormatDate(start) + " to " + util.FormatDate(end),
		StrategyResults:  make(map[string]StrategyMetrics),
		RankedStrategies: []RankedStrategy{},
	}
	for _, o := range outcomes {
		if o.err != nil {
			bt.log.Warn("strategy excluded from comparison", "ticker", ticker, "strategy", o.name, "error", o.err)
			continue
		}
		cmp.StrategyResults[o.name] = o.metrics
		cmp.RankedStrategies = append(cmp.RankedStrategies, RankedStrategy{Name: o.name, Metrics: o.metrics})
	}
	sort.SliceStable(cmp.RankedStrategies, func(i, j int) bool {
		return cmp.RankedStrategies[i].Metrics.SharpeRatio > cmp.RankedStrategies[j].Metrics.SharpeRatio
	})
	if len(cmp.RankedStrategies) > 0 {
		cmp.BestStrategy = cmp.RankedStrategies[0].Name
	}
	return cmp, nil
}

func (bt *Backtester) evaluate(name string, bars []domain.Bar, ind indicator.Set) outcome {
	s, ok := bt.registry.Get(name)
	if !ok {
		return outcome{name: name, err: newError(KindInvalidStrategy, "unknown strategy %q", name)}
	}
	sim, err := Simulate(bars, ind, s, bt.capital)
	if err != nil {
		return outcome{name: name, err: err}
	}
	m := performance.Analyze(sim.EquityCurve, sim.DailyReturns, sim.Trades)
	return outcome{name: name, metrics: StrategyMetrics{
		TotalReturn: m.TotalReturn,
		SharpeRatio: m.SharpeRatio,
		MaxDrawdown: m.MaxDrawdown,
		WinRate:     m.WinRate,
	}}
}

// loadBars fetches enough history to cover [start, end] and trims it to that
// range.
func (bt *Backtester) loadBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.Bar, error) {
	lookback := marketdata.SelectLookback(start, end)
	bars, err := bt.source.FetchBars(ctx, ticker, lookback)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return nil, &Error{Kind: KindNoDataAvailable, Msg: "no data for " + ticker, Err: err}
		}
		return nil, fmt.Errorf("fetching %s (%s): %w", ticker, lookback, err)
	}
	if len(bars) == 0 {
		return nil, newError(KindNoDataAvailable, "no data for %s", ticker)
	}

	bt.log.Debug("fetched bars", "ticker", ticker, "lookback", lookback, "bars", len(bars))

	bars = marketdata.Between(marketdata.Normalize(bars), start, end)
	if len(bars) < bt.minBars {
		return nil, newError(KindInsufficientData, "%s has %d bars between %s and %s, need %d",
			ticker, len(bars), util.FormatDate(start), util.FormatDate(end), bt.minBars)
	}
	return bars, nil
}

func parseWindow(ticker, startDate, endDate string) (string, time.Time, time.Time, error) {
	if strings.TrimSpace(ticker) == "" {
		return "", time.Time{}, time.Time{}, newError(KindInvalidInput, "ticker is required")
	}
	start, err := util.ParseDate(startDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, &Error{Kind: KindInvalidInput, Msg: "bad start_date", Err: err}
	}
	end, err := util.ParseDate(endDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, &Error{Kind: KindInvalidInput, Msg: "bad end_date", Err: err}
	}
	if start.After(end) {
		return "", time.Time{}, time.Time{}, newError(KindInvalidInput, "start_date %s is after end_date %s", startDate, endDate)
	}
	return ticker, start, end, nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	return append([]T(nil), s...)
}

func signalNames(sigs []domain.Signal) []string {
	out := make([]string, len(sigs))
	for i, s := range sigs {
		out[i] = string(s)
	}
	return out
}
