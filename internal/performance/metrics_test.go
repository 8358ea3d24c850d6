package performance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradelab/internal/domain"
)

func buy(p float64) domain.Trade  { return domain.Trade{Side: domain.TradeSideBuy, Price: p} }
func sell(p float64) domain.Trade { return domain.Trade{Side: domain.TradeSideSell, Price: p} }

func TestAnalyzeFlatEquity(t *testing.T) {
	equity := make([]float64, 30)
	returns := make([]float64, 30)
	for i := range equity {
		equity[i] = 10000
	}

	m := Analyze(equity, returns, []domain.Trade{buy(100)})
	assert.Equal(t, 10000.0, m.InitialCapital)
	assert.Equal(t, 10000.0, m.FinalCapital)
	assert.Equal(t, 0.0, m.TotalReturn)
	assert.Equal(t, 0.0, m.AnnualizedReturn)
	assert.Equal(t, 0.0, m.Volatility)
	assert.Equal(t, 0.0, m.SharpeRatio)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 1, m.TradeCount)
}

func TestAnalyzeEmpty(t *testing.T) {
	m := Analyze(nil, nil, nil)
	assert.Equal(t, Metrics{}, m)
}

func TestTotalAndAnnualizedReturn(t *testing.T) {
	assert.InDelta(t, 0.3, TotalReturn(10000, 13000), 1e-12)
	assert.Equal(t, 0.0, TotalReturn(0, 13000))

	// One full trading year compounds to the total return.
	assert.InDelta(t, 0.1, AnnualizedReturn(100, 110, TradingDaysPerYear), 1e-12)
	// Half a year of 10% growth annualizes to 21%.
	assert.InDelta(t, 0.21, AnnualizedReturn(100, 110, TradingDaysPerYear/2), 1e-12)
	assert.Equal(t, 0.0, AnnualizedReturn(100, 110, 0))
}

func TestVolatility(t *testing.T) {
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility([]float64{0.5}))

	got := Volatility([]float64{0.01, -0.01, 0.01, -0.01})
	// Sample std of +/-0.01 alternating over 4 points is sqrt(4e-4/3).
	want := math.Sqrt(4e-4/3) * math.Sqrt(TradingDaysPerYear)
	assert.InDelta(t, want, got, 1e-12)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(0.5, 0))
	assert.InDelta(t, 0.9, SharpeRatio(0.2, 0.2), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		equity []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"rising", []float64{1, 2, 3, 3, 4}, 0},
		{"single dip", []float64{100, 80, 120}, -0.2},
		{"deepest of two", []float64{100, 90, 150, 75, 160}, -0.5},
		{"falling from start", []float64{200, 150, 100}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.equity)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.LessOrEqual(t, got, 0.0)
		})
	}
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		name   string
		trades []domain.Trade
		want   float64
	}{
		{"no trades", nil, 0},
		{"open position only", []domain.Trade{buy(10)}, 0},
		{"one win", []domain.Trade{buy(10), sell(12)}, 1},
		{"break even is not a win", []domain.Trade{buy(10), sell(10)}, 0},
		{"half", []domain.Trade{buy(10), sell(12), buy(12), sell(11)}, 0.5},
		{"trailing buy ignored", []domain.Trade{buy(10), sell(9), buy(9), sell(15), buy(15)}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WinRate(tt.trades)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}
