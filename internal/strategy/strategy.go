// Package strategy defines the Strategy interface for single-position trading
// rules, a Registry for looking them up by name, the bar-by-bar simulator and
// the Backtester that ties data, indicators, simulation and metrics together.
package strategy

import (
	"sort"

	"tradelab/internal/domain"
	"tradelab/internal/indicator"
)

// Input is the read-only market view handed to a strategy on every bar.
type Input struct {
	Bars       []domain.Bar
	Closes     []float64
	Indicators indicator.Set
}

// Strategy is the interface that all trading strategies must implement.
// Implementations must be stateless so one instance can serve concurrent
// simulations.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Lookback is the number of bars that must precede bar t before OnBar is
	// consulted. Earlier bars always HOLD.
	Lookback() int

	// OnBar returns the signal for bar t given the position held going into
	// that bar. BUY is only acted on while flat and SELL only while long.
	OnBar(t int, in Input, pos domain.Position) domain.Signal
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
	order      []string
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Strategy),
	}
}

// Register adds a strategy to the registry, keyed by its Name(). Registering
// the same name twice replaces the earlier strategy.
func (r *Registry) Register(s Strategy) {
	if _, exists := r.strategies[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.strategies[name]
	return s, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ordered returns strategy names in registration order.
func (r *Registry) Ordered() []string {
	return append([]string(nil), r.order...)
}
