// Package marketdata retrieves historical daily price series. It is the only
// part of tradelab that touches the network; the backtest core receives the
// already materialized series.
package marketdata

import (
	"context"
	"errors"
	"sort"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/util"
)

// ErrNoData is returned when a source has no bars for a ticker.
var ErrNoData = errors.New("marketdata: no data")

// Lookback is a coarse history window requested from a source, ending now.
type Lookback string

const (
	Lookback1Month  Lookback = "1mo"
	Lookback3Months Lookback = "3mo"
	Lookback6Months Lookback = "6mo"
	Lookback1Year   Lookback = "1y"
	Lookback2Years  Lookback = "2y"
	Lookback5Years  Lookback = "5y"
)

// SelectLookback picks the smallest lookback tag for a requested date span.
// It is a heuristic against under-fetching, not a guarantee that the fetched
// window covers [start, end]; callers filter the result to the exact range.
func SelectLookback(start, end time.Time) Lookback {
	days := util.DaysBetween(start, end)
	switch {
	case days <= 7:
		return Lookback1Month
	case days <= 60:
		return Lookback3Months
	case days <= 180:
		return Lookback6Months
	case days <= 365:
		return Lookback1Year
	case days <= 730:
		return Lookback2Years
	default:
		return Lookback5Years
	}
}

// Since returns the start of the window that ends at t.
func (l Lookback) Since(t time.Time) time.Time {
	switch l {
	case Lookback1Month:
		return t.AddDate(0, -1, 0)
	case Lookback3Months:
		return t.AddDate(0, -3, 0)
	case Lookback6Months:
		return t.AddDate(0, -6, 0)
	case Lookback1Year:
		return t.AddDate(-1, 0, 0)
	case Lookback2Years:
		return t.AddDate(-2, 0, 0)
	default:
		return t.AddDate(-5, 0, 0)
	}
}

// Valid reports whether l is one of the known tags.
func (l Lookback) Valid() bool {
	switch l {
	case Lookback1Month, Lookback3Months, Lookback6Months, Lookback1Year, Lookback2Years, Lookback5Years:
		return true
	}
	return false
}

// Source returns the chronologically ordered daily bars of a ticker for a
// lookback window. Implementations return ErrNoData instead of an empty
// slice.
type Source interface {
	FetchBars(ctx context.Context, ticker string, lookback Lookback) ([]domain.Bar, error)
}

// Normalize sorts bars by time and keeps the last bar seen for each calendar
// date, giving a strictly increasing series.
func Normalize(bars []domain.Bar) []domain.Bar {
	if len(bars) == 0 {
		return nil
	}
	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	deduped := out[:0]
	for _, b := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date().Equal(b.Date()) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return deduped
}

// Between returns the bars whose calendar date falls within [start, end].
func Between(bars []domain.Bar, start, end time.Time) []domain.Bar {
	var out []domain.Bar
	for _, b := range bars {
		d := b.Date()
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
