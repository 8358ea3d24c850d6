// Package store defines storage interfaces for persisting and retrieving
// price bars and backtest run history.
package store

import (
	"context"
	"errors"
	"time"

	"tradelab/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol and market within [start, end].
	ReadBars(ctx context.Context, symbol string, market string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in the given market.
	ListSymbols(ctx context.Context, market string) ([]string, error)
}

// RunRecord is a persisted backtest run. Payload holds the JSON result as
// returned to the caller.
type RunRecord struct {
	ID          string
	Ticker      string
	Strategy    string
	StartDate   string
	EndDate     string
	TotalReturn float64
	SharpeRatio float64
	MaxDrawdown float64
	WinRate     float64
	Payload     []byte
	CreatedAt   time.Time
}

// ResultStore persists and retrieves backtest run history.
type ResultStore interface {
	// SaveResult inserts a run, assigning ID and CreatedAt when empty.
	SaveResult(ctx context.Context, rec *RunRecord) error

	// GetResult retrieves a single run by its ID.
	GetResult(ctx context.Context, id string) (*RunRecord, error)

	// ListResults returns the most recent runs, newest first, up to limit.
	ListResults(ctx context.Context, limit int) ([]RunRecord, error)
}
