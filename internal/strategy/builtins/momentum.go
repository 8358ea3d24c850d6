package builtins

import (
	"tradelab/internal/domain"
	"tradelab/internal/strategy"
)

var _ strategy.Strategy = (*MomentumStrategy)(nil)

// MomentumStrategy trades the percentage change of the close over a fixed
// number of bars: enter above +threshold, exit below -threshold.
type MomentumStrategy struct {
	period    int
	threshold float64
}

// NewMomentum creates a momentum strategy over period bars.
func NewMomentum(period int, threshold float64) *MomentumStrategy {
	return &MomentumStrategy{period: period, threshold: threshold}
}

// Name returns "momentum".
func (s *MomentumStrategy) Name() string { return Momentum }

// Lookback returns the momentum period.
func (s *MomentumStrategy) Lookback() int { return s.period }

// OnBar evaluates close[t]/close[t-period] - 1.
func (s *MomentumStrategy) OnBar(t int, in strategy.Input, pos domain.Position) domain.Signal {
	if t < s.period {
		return domain.SignalHold
	}
	base := in.Closes[t-s.period]
	if base == 0 {
		return domain.SignalHold
	}
	change := in.Closes[t]/base - 1
	switch {
	case pos == domain.PositionFlat && change > s.threshold:
		return domain.SignalBuy
	case pos == domain.PositionLong && change < -s.threshold:
		return domain.SignalSell
	}
	return domain.SignalHold
}
