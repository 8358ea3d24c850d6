package builtins

import (
	"tradelab/internal/domain"
	"tradelab/internal/indicator"
	"tradelab/internal/strategy"
)

var _ strategy.Strategy = (*RSIReversion)(nil)

// RSIReversion buys oversold and sells overbought readings of RSI_14.
type RSIReversion struct {
	oversold, overbought float64
}

// NewRSIReversion creates the RSI mean-reversion strategy with the given
// thresholds.
func NewRSIReversion(oversold, overbought float64) *RSIReversion {
	return &RSIReversion{oversold: oversold, overbought: overbought}
}

// Name returns "rsi_mean_reversion".
func (s *RSIReversion) Name() string { return RSIMeanReversion }

// Lookback returns 14.
func (s *RSIReversion) Lookback() int { return 14 }

// OnBar compares RSI_14 at bar t against the thresholds.
func (s *RSIReversion) OnBar(t int, in strategy.Input, pos domain.Position) domain.Signal {
	rsi, ok := in.Indicators.At(indicator.RSI14, t)
	if !ok {
		return domain.SignalHold
	}
	switch {
	case pos == domain.PositionFlat && rsi < s.oversold:
		return domain.SignalBuy
	case pos == domain.PositionLong && rsi > s.overbought:
		return domain.SignalSell
	}
	return domain.SignalHold
}
