// Package performance reduces a simulated equity trajectory to standard
// risk/return statistics.
package performance

import (
	"math"

	"tradelab/internal/domain"
)

const (
	// TradingDaysPerYear annualizes bar counts and daily volatility.
	TradingDaysPerYear = 252
	// RiskFreeRate is the fixed annual rate subtracted in the Sharpe ratio.
	RiskFreeRate = 0.02
)

// Metrics are the scalar statistics of a single simulation.
type Metrics struct {
	InitialCapital   float64 `json:"initial_capital"`
	FinalCapital     float64 `json:"final_capital"`
	TotalReturn      float64 `json:"total_return"`
	AnnualizedReturn float64 `json:"annualized_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	WinRate          float64 `json:"win_rate"`
	TradeCount       int     `json:"trades"`
}

// Analyze computes Metrics from an equity curve, its daily returns and the
// trades that produced it. Degenerate inputs (empty curve, zero volatility,
// no completed trade pair) yield zero-valued ratios instead of NaN or Inf.
func Analyze(equity, dailyReturns []float64, trades []domain.Trade) Metrics {
	m := Metrics{TradeCount: len(trades)}
	if len(equity) == 0 {
		return m
	}
	initial := equity[0]
	final := equity[len(equity)-1]
	m.InitialCapital = initial
	m.FinalCapital = final

	m.TotalReturn = TotalReturn(initial, final)
	m.AnnualizedReturn = AnnualizedReturn(initial, final, len(equity))
	m.Volatility = Volatility(dailyReturns)
	m.SharpeRatio = SharpeRatio(m.AnnualizedReturn, m.Volatility)
	m.MaxDrawdown = MaxDrawdown(equity)
	m.WinRate = WinRate(trades)
	return m
}

// TotalReturn is (final - initial) / initial, 0 when initial is not positive.
func TotalReturn(initial, final float64) float64 {
	if initial <= 0 {
		return 0
	}
	return (final - initial) / initial
}

// AnnualizedReturn compounds the total growth over bars/252 years.
func AnnualizedReturn(initial, final float64, bars int) float64 {
	years := float64(bars) / TradingDaysPerYear
	if years == 0 || initial <= 0 || final < 0 {
		return 0
	}
	r := math.Pow(final/initial, 1/years) - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// Volatility is the annualized sample standard deviation of daily returns.
func Volatility(dailyReturns []float64) float64 {
	n := len(dailyReturns)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, r := range dailyReturns {
		mean += r
	}
	mean /= float64(n)
	var ss float64
	for _, r := range dailyReturns {
		d := r - mean
		ss += d * d
	}
	return math.Sqrt(ss/float64(n-1)) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio is the excess annualized return per unit of volatility.
func SharpeRatio(annualizedReturn, volatility float64) float64 {
	if volatility <= 0 {
		return 0
	}
	return (annualizedReturn - RiskFreeRate) / volatility
}

// MaxDrawdown is the deepest fall from a running peak, as a non-positive
// fraction of that peak.
func MaxDrawdown(equity []float64) float64 {
	var peak, worst float64
	for i, v := range equity {
		if i == 0 || v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}

// WinRate pairs trades as consecutive (BUY, SELL) in emission order and
// returns the fraction of pairs that sold above the buy price. A trailing
// unmatched BUY is ignored.
func WinRate(trades []domain.Trade) float64 {
	var pairs, wins int
	for i := 0; i+1 < len(trades); i += 2 {
		buy, sell := trades[i], trades[i+1]
		if buy.Side != domain.TradeSideBuy || sell.Side != domain.TradeSideSell {
			continue
		}
		pairs++
		if sell.Price > buy.Price {
			wins++
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(wins) / float64(pairs)
}
