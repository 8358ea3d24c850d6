package tradelab

import (
	"encoding/json"
	"fmt"
	"time"
)

// BacktestRequest is the body of POST /api/backtest. InitialCapital defaults
// to 10000 server-side when zero.
type BacktestRequest struct {
	Ticker         string  `json:"ticker"`
	Strategy       string  `json:"strategy"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	InitialCapital float64 `json:"initial_capital,omitempty"`
}

// BacktestResult is the outcome of a single run. ID is set when the server
// stored the run.
type BacktestResult struct {
	ID               string    `json:"id,omitempty"`
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

// StrategyMetrics summarizes one strategy in a comparison.
type StrategyMetrics struct {
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
}

// RankedStrategy is a [name, metrics] pair from a comparison ranking.
type RankedStrategy struct {
	Name    string
	Metrics StrategyMetrics
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

// Comparison ranks every strategy over the same window, best Sharpe first.
type Comparison struct {
	Ticker           string                     `json:"ticker"`
	Period           string                     `json:"period"`
	StrategyResults  map[string]StrategyMetrics `json:"strategy_results"`
	RankedStrategies []RankedStrategy           `json:"ranked_strategies"`
	BestStrategy     string                     `json:"best_strategy"`
}

// RunSummary is a stored run as listed by GET /api/results.
type RunSummary struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	Strategy    string    `json:"strategy"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	TotalReturn float64   `json:"total_return"`
	SharpeRatio float64   `json:"sharpe_ratio"`
	MaxDrawdown float64   `json:"max_drawdown"`
	WinRate     float64   `json:"win_rate"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunDetail is a stored run with its full result.
type RunDetail struct {
	RunSummary
	Result BacktestResult `json:"result"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Kind       string `json:"kind"`
	Message    string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("tradelab: %d %s: %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("tradelab: %d: %s", e.StatusCode, e.Message)
}
