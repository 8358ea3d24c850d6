// Package indicator derives technical indicator series from price bars.
//
// Every series returned here is aligned one-to-one with its input: positions
// inside an indicator's warm-up window hold NaN instead of being dropped, so
// index t of any series always refers to bar t.
package indicator

import (
	"math"

	"tradelab/internal/domain"
)

// Indicator names produced by Compute.
const (
	SMA10      = "SMA_10"
	SMA20      = "SMA_20"
	EMA12      = "EMA_12"
	EMA26      = "EMA_26"
	MACD       = "MACD"
	MACDSignal = "MACD_Signal"
	RSI14      = "RSI_14"
	BBUpper    = "BB_Upper"
	BBLower    = "BB_Lower"
	BBMiddle   = "BB_Middle"
)

// Names lists every indicator in a Set, in a stable order.
var Names = []string{SMA10, SMA20, EMA12, EMA26, MACD, MACDSignal, RSI14, BBUpper, BBLower, BBMiddle}

// Set maps an indicator name to its bar-aligned series.
type Set map[string][]float64

// At returns the value of the named indicator at bar t. ok is false when the
// indicator is unknown, t is out of range, or t falls inside the warm-up
// window.
func (s Set) At(name string, t int) (v float64, ok bool) {
	series, found := s[name]
	if !found || t < 0 || t >= len(series) {
		return 0, false
	}
	v = series[t]
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Compute derives the full indicator set from bars. It is a pure function of
// the closing prices.
func Compute(bars []domain.Bar) Set {
	closes := Closes(bars)

	ema12 := EMA(closes, 12)
	ema26 := EMA(closes, 26)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = ema12[i] - ema26[i]
	}
	upper, middle, lower := Bollinger(closes, 20, 2)

	return Set{
		SMA10:      SMA(closes, 10),
		SMA20:      SMA(closes, 20),
		EMA12:      ema12,
		EMA26:      ema26,
		MACD:       macd,
		MACDSignal: EMA(macd, 9),
		RSI14:      RSI(closes, 14),
		BBUpper:    upper,
		BBLower:    lower,
		BBMiddle:   middle,
	}
}

// Closes extracts the closing price of every bar.
func Closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
