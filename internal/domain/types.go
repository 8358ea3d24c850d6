// Package domain defines the core value types shared across the tradelab
// packages: price bars, simulated trades, per-bar signals and positions.
package domain

import "time"

// Market identifies the exchange group a symbol belongs to. It is used as a
// partition key by the bar store.
type Market string

const (
	MarketUS Market = "us"
	MarketCN Market = "cn"
)

// Bar is a single OHLCV price bar. Bars are immutable once produced by a
// market-data source.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Date returns the calendar date of the bar in UTC, truncated to midnight.
func (b Bar) Date() time.Time {
	y, m, d := b.Timestamp.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TradeSide is the direction of a simulated trade.
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// Trade is a simulated fill produced by the strategy engine. Trades always
// alternate BUY, SELL, BUY, ... starting from a flat position.
type Trade struct {
	Side      TradeSide `json:"type"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"date"`
}

// Signal is the decision taken by a strategy on a single bar.
type Signal string

const (
	SignalHold Signal = "HOLD"
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
)

// Position is the single-unit exposure state of a simulation.
type Position string

const (
	PositionFlat Position = "FLAT"
	PositionLong Position = "LONG"
)
