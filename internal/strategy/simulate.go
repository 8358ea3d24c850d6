package strategy

import (
	"tradelab/internal/domain"
	"tradelab/internal/indicator"
)

// Simulation is the bar-aligned trajectory of a single strategy run.
type Simulation struct {
	EquityCurve  []float64
	DailyReturns []float64
	Signals      []domain.Signal
	Trades       []domain.Trade
}

// Simulate replays bars through s as an all-in/all-out state machine starting
// flat with initialCapital in cash. Entries convert all cash to shares at the
// bar's close and exits convert all shares back. Only signals that change the
// position are recorded; anything else is reported as HOLD.
//
// The state lives entirely inside the call, so concurrent simulations over
// the same bars and indicators are safe.
func Simulate(bars []domain.Bar, ind indicator.Set, s Strategy, initialCapital float64) (*Simulation, error) {
	if s == nil {
		return nil, newError(KindInvalidStrategy, "no strategy given")
	}
	if !(initialCapital > 0) {
		return nil, newError(KindInvalidInput, "initial capital must be positive, got %v", initialCapital)
	}
	if len(bars) == 0 {
		return nil, newError(KindInsufficientData, "no bars to simulate")
	}

	n := len(bars)
	sim := &Simulation{
		EquityCurve:  make([]float64, n),
		DailyReturns: make([]float64, n),
		Signals:      make([]domain.Signal, n),
	}
	in := Input{Bars: bars, Closes: indicator.Closes(bars), Indicators: ind}

	var (
		pos    = domain.PositionFlat
		cash   = initialCapital
		shares float64
	)
	lookback := s.Lookback()

	for t := range bars {
		price := in.Closes[t]
		sig := domain.SignalHold
		if t >= lookback {
			sig = s.OnBar(t, in, pos)
		}

		switch {
		case sig == domain.SignalBuy && pos == domain.PositionFlat && price > 0:
			shares = cash / price
			cash = 0
			pos = domain.PositionLong
			sim.Trades = append(sim.Trades, domain.Trade{Side: domain.TradeSideBuy, Price: price, Timestamp: bars[t].Timestamp})
		case sig == domain.SignalSell && pos == domain.PositionLong:
			cash = shares * price
			shares = 0
			pos = domain.PositionFlat
			sim.Trades = append(sim.Trades, domain.Trade{Side: domain.TradeSideSell, Price: price, Timestamp: bars[t].Timestamp})
		default:
			sig = domain.SignalHold
		}
		sim.Signals[t] = sig

		equity := cash
		if pos == domain.PositionLong {
			equity = shares * price
		}
		if t == 0 {
			// Converting at the first close is value-neutral; pin it exactly.
			equity = initialCapital
		}
		sim.EquityCurve[t] = equity

		if t > 0 {
			if prev := sim.EquityCurve[t-1]; prev != 0 {
				sim.DailyReturns[t] = (equity - prev) / prev
			}
		}
	}
	return sim, nil
}
