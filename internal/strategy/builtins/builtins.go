// Package builtins provides the strategy implementations that ship with
// tradelab.
package builtins

import "tradelab/internal/strategy"

// Strategy identifiers.
const (
	BuyAndHold             = "buy_and_hold"
	MovingAverageCrossover = "moving_average_crossover"
	RSIMeanReversion       = "rsi_mean_reversion"
	BollingerBands         = "bollinger_bands"
	Momentum               = "momentum"
)

// Names lists the built-in strategies in their canonical order.
var Names = []string{BuyAndHold, MovingAverageCrossover, RSIMeanReversion, BollingerBands, Momentum}

// Register adds every built-in strategy to r in canonical order.
func Register(r *strategy.Registry) {
	r.Register(NewBuyAndHold())
	r.Register(NewMACross())
	r.Register(NewRSIReversion(30, 70))
	r.Register(NewBollinger())
	r.Register(NewMomentum(10, 0.05))
}

// NewRegistry returns a registry holding all built-in strategies.
func NewRegistry() *strategy.Registry {
	r := strategy.NewRegistry()
	Register(r)
	return r
}
