package builtins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradelab/internal/domain"
	"tradelab/internal/indicator"
	"tradelab/internal/strategy"
)

var nan = math.NaN()

func TestRegistryHoldsBuiltinsInOrder(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, Names, r.Ordered())
	for _, name := range Names {
		s, ok := r.Get(name)
		require.True(t, ok, name)
		assert.Equal(t, name, s.Name())
	}

	lookbacks := map[string]int{
		BuyAndHold:             0,
		MovingAverageCrossover: 20,
		RSIMeanReversion:       14,
		BollingerBands:         20,
		Momentum:               10,
	}
	for name, want := range lookbacks {
		s, _ := r.Get(name)
		assert.Equal(t, want, s.Lookback(), name)
	}
}

func TestBuyAndHold(t *testing.T) {
	s := NewBuyAndHold()
	assert.Equal(t, domain.SignalBuy, s.OnBar(0, strategy.Input{}, domain.PositionFlat))
	assert.Equal(t, domain.SignalHold, s.OnBar(5, strategy.Input{}, domain.PositionFlat))
	assert.Equal(t, domain.SignalHold, s.OnBar(5, strategy.Input{}, domain.PositionLong))
}

func TestMACross(t *testing.T) {
	s := NewMACross()
	// Bars 20..24: above, above, below, below, above.
	in := strategy.Input{Indicators: indicator.Set{
		indicator.SMA10: {19: 1, 20: 2, 21: 2, 22: 1, 23: 1, 24: 3},
		indicator.SMA20: {19: 1, 20: 1, 21: 1, 22: 2, 23: 2, 24: 2},
	}}

	assert.Equal(t, domain.SignalBuy, s.OnBar(20, in, domain.PositionFlat), "already above on first evaluated bar")
	assert.Equal(t, domain.SignalHold, s.OnBar(21, in, domain.PositionFlat), "no fresh cross")
	assert.Equal(t, domain.SignalSell, s.OnBar(22, in, domain.PositionLong))
	assert.Equal(t, domain.SignalHold, s.OnBar(23, in, domain.PositionLong), "no fresh cross")
	assert.Equal(t, domain.SignalBuy, s.OnBar(24, in, domain.PositionFlat))
	assert.Equal(t, domain.SignalHold, s.OnBar(24, in, domain.PositionLong))
}

func TestMACrossEqualAveragesHold(t *testing.T) {
	s := NewMACross()
	in := strategy.Input{Indicators: indicator.Set{
		indicator.SMA10: {19: 1, 20: 1},
		indicator.SMA20: {19: 1, 20: 1},
	}}
	assert.Equal(t, domain.SignalHold, s.OnBar(20, in, domain.PositionFlat))
	assert.Equal(t, domain.SignalHold, s.OnBar(20, in, domain.PositionLong))
}

func TestRSIReversion(t *testing.T) {
	s := NewRSIReversion(30, 70)
	in := strategy.Input{Indicators: indicator.Set{
		indicator.RSI14: {nan, 29.9, 30, 70, 70.1},
	}}

	assert.Equal(t, domain.SignalHold, s.OnBar(0, in, domain.PositionFlat), "undefined RSI")
	assert.Equal(t, domain.SignalBuy, s.OnBar(1, in, domain.PositionFlat))
	assert.Equal(t, domain.SignalHold, s.OnBar(2, in, domain.PositionFlat), "30 is not oversold")
	assert.Equal(t, domain.SignalHold, s.OnBar(3, in, domain.PositionLong), "70 is not overbought")
	assert.Equal(t, domain.SignalSell, s.OnBar(4, in, domain.PositionLong))
	assert.Equal(t, domain.SignalHold, s.OnBar(1, in, domain.PositionLong), "already long")
}

func TestBollinger(t *testing.T) {
	s := NewBollinger()
	in := strategy.Input{
		Closes: []float64{90, 95, 110, 100},
		Indicators: indicator.Set{
			indicator.BBLower: {90, 90, 90, nan},
			indicator.BBUpper: {110, 110, 110, nan},
		},
	}

	assert.Equal(t, domain.SignalBuy, s.OnBar(0, in, domain.PositionFlat), "touching the lower band")
	assert.Equal(t, domain.SignalHold, s.OnBar(1, in, domain.PositionFlat))
	assert.Equal(t, domain.SignalSell, s.OnBar(2, in, domain.PositionLong), "touching the upper band")
	assert.Equal(t, domain.SignalHold, s.OnBar(3, in, domain.PositionFlat), "undefined bands")
}

func TestMomentum(t *testing.T) {
	s := NewMomentum(2, 0.05)
	in := strategy.Input{Closes: []float64{100, 0, 106, 50, 100.5}}

	assert.Equal(t, domain.SignalHold, s.OnBar(1, in, domain.PositionFlat), "not enough history")
	assert.Equal(t, domain.SignalBuy, s.OnBar(2, in, domain.PositionFlat), "+6%")
	assert.Equal(t, domain.SignalHold, s.OnBar(3, in, domain.PositionLong), "zero base")
	assert.Equal(t, domain.SignalSell, s.OnBar(4, in, domain.PositionLong), "-5.2%")
	assert.Equal(t, domain.SignalHold, s.OnBar(4, in, domain.PositionFlat), "already flat")
}
