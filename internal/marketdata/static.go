package marketdata

import (
	"context"
	"fmt"
	"strings"

	"tradelab/internal/domain"
)

// Compile-time interface check.
var _ Source = (*StaticSource)(nil)

// StaticSource serves fixed in-memory series keyed by ticker. The full
// series is returned whatever the lookback.
type StaticSource struct {
	series map[string][]domain.Bar
}

// NewStaticSource creates an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{series: make(map[string][]domain.Bar)}
}

// Add registers bars for ticker, replacing any earlier series.
func (s *StaticSource) Add(ticker string, bars []domain.Bar) {
	s.series[strings.ToUpper(ticker)] = Normalize(bars)
}

// FetchBars returns a copy of the series registered for ticker.
func (s *StaticSource) FetchBars(_ context.Context, ticker string, _ Lookback) ([]domain.Bar, error) {
	bars := s.series[strings.ToUpper(strings.TrimSpace(ticker))]
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	out := make([]domain.Bar, len(bars))
	copy(out, bars)
	return out, nil
}
