package builtins

import (
	"tradelab/internal/domain"
	"tradelab/internal/strategy"
)

var _ strategy.Strategy = (*BuyAndHoldStrategy)(nil)

// BuyAndHoldStrategy enters on the first bar and never exits.
type BuyAndHoldStrategy struct{}

// NewBuyAndHold creates the buy-and-hold benchmark strategy.
func NewBuyAndHold() *BuyAndHoldStrategy { return &BuyAndHoldStrategy{} }

// Name returns "buy_and_hold".
func (s *BuyAndHoldStrategy) Name() string { return BuyAndHold }

// Lookback is zero: the entry happens on bar 0.
func (s *BuyAndHoldStrategy) Lookback() int { return 0 }

// OnBar buys on bar 0 and holds afterwards.
func (s *BuyAndHoldStrategy) OnBar(t int, _ strategy.Input, pos domain.Position) domain.Signal {
	if t == 0 && pos == domain.PositionFlat {
		return domain.SignalBuy
	}
	return domain.SignalHold
}
