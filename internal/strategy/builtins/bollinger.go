package builtins

import (
	"tradelab/internal/domain"
	"tradelab/internal/indicator"
	"tradelab/internal/strategy"
)

var _ strategy.Strategy = (*Bollinger)(nil)

// Bollinger buys at or below the lower band and sells at or above the upper
// band.
type Bollinger struct{}

// NewBollinger creates the Bollinger band reversion strategy.
func NewBollinger() *Bollinger { return &Bollinger{} }

// Name returns "bollinger_bands".
func (s *Bollinger) Name() string { return BollingerBands }

// Lookback returns 20.
func (s *Bollinger) Lookback() int { return 20 }

// OnBar compares the close at bar t to the bands.
func (s *Bollinger) OnBar(t int, in strategy.Input, pos domain.Position) domain.Signal {
	lower, ok1 := in.Indicators.At(indicator.BBLower, t)
	upper, ok2 := in.Indicators.At(indicator.BBUpper, t)
	if !ok1 || !ok2 {
		return domain.SignalHold
	}
	price := in.Closes[t]
	switch {
	case pos == domain.PositionFlat && price <= lower:
		return domain.SignalBuy
	case pos == domain.PositionLong && price >= upper:
		return domain.SignalSell
	}
	return domain.SignalHold
}
