// Package httpapi provides the JSON HTTP API for running backtests, comparing
// strategies and browsing stored runs.
package httpapi

import (
	"encoding/json"
	"time"

	"tradelab/internal/store"
	"tradelab/internal/strategy"
)

// StrategiesResponse lists the strategies a client may request.
type StrategiesResponse struct {
	Strategies []string `json:"strategies"`
}

// BacktestResponse is a backtest result plus the ID it was stored under.
// ID is empty when the server runs without a result store.
type BacktestResponse struct {
	ID string `json:"id,omitempty"`
	*strategy.Result
}

// RunSummary is the list view of a stored run.
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

// ResultsResponse wraps the run history list.
type ResultsResponse struct {
	Results []RunSummary `json:"results"`
}

// RunDetail is a stored run with its full result payload.
type RunDetail struct {
	RunSummary
	Result json.RawMessage `json:"result"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func summaryOf(rec *store.RunRecord) RunSummary {
	return RunSummary{
		ID:          rec.ID,
		Ticker:      rec.Ticker,
		Strategy:    rec.Strategy,
		StartDate:   rec.StartDate,
		EndDate:     rec.EndDate,
		TotalReturn: rec.TotalReturn,
		SharpeRatio: rec.SharpeRatio,
		MaxDrawdown: rec.MaxDrawdown,
		WinRate:     rec.WinRate,
		CreatedAt:   rec.CreatedAt,
	}
}
