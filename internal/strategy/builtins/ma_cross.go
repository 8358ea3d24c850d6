package builtins

import (
	"tradelab/internal/domain"
	"tradelab/internal/indicator"
	"tradelab/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Strategy = (*MACross)(nil)

// MACross implements a simple moving average crossover strategy. It buys
// when SMA_10 crosses above SMA_20 and sells when it crosses below.
//
// On the first evaluated bar there is no earlier evaluated relation to cross
// from, so a fast average already above (below) the slow one counts as a
// cross up (down).
type MACross struct {
	fast, slow string
	lookback   int
}

// NewMACross creates the SMA_10 / SMA_20 crossover strategy.
func NewMACross() *MACross {
	return &MACross{fast: indicator.SMA10, slow: indicator.SMA20, lookback: 20}
}

// Name returns "moving_average_crossover".
func (s *MACross) Name() string { return MovingAverageCrossover }

// Lookback returns 20.
func (s *MACross) Lookback() int { return s.lookback }

// OnBar detects the crossover at bar t.
func (s *MACross) OnBar(t int, in strategy.Input, pos domain.Position) domain.Signal {
	fast, ok1 := in.Indicators.At(s.fast, t)
	slow, ok2 := in.Indicators.At(s.slow, t)
	if !ok1 || !ok2 {
		return domain.SignalHold
	}

	first := t == s.lookback
	prevFast, ok1 := in.Indicators.At(s.fast, t-1)
	prevSlow, ok2 := in.Indicators.At(s.slow, t-1)
	if !ok1 || !ok2 {
		first = true
	}

	switch pos {
	case domain.PositionFlat:
		if fast > slow && (first || prevFast <= prevSlow) {
			return domain.SignalBuy
		}
	case domain.PositionLong:
		if fast < slow && (first || prevFast >= prevSlow) {
			return domain.SignalSell
		}
	}
	return domain.SignalHold
}
