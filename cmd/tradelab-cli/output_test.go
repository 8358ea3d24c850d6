package main

import (
	"bytes"
	"strings"
	"testing"

	"tradelab/pkg/tradelab"
)

func TestFormatting(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{money(13000), "13000.00"},
		{money(9999.999), "10000.00"},
		{pct(0.3), "30.00%"},
		{pct(-0.05123), "-5.12%"},
		{pct(0), "0.00%"},
		{ratio(1.23456), "1.235"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestPrintComparison(t *testing.T) {
	cmp := &tradelab.Comparison{
		Ticker: "SPY",
		Period: "2024-01-01 to 2024-06-30",
		RankedStrategies: []tradelab.RankedStrategy{
			{Name: "momentum", Metrics: tradelab.StrategyMetrics{TotalReturn: 0.12, SharpeRatio: 1.5}},
			{Name: "buy_and_hold", Metrics: tradelab.StrategyMetrics{TotalReturn: 0.08, SharpeRatio: 0.9}},
		},
		BestStrategy: "momentum",
	}
	var buf bytes.Buffer
	printComparison(&buf, cmp)
	out := buf.String()

	if !strings.Contains(out, "Best: momentum") {
		t.Errorf("missing best strategy in:\n%s", out)
	}
	if strings.Index(out, "momentum") > strings.Index(out, "buy_and_hold") {
		t.Errorf("ranking order lost in:\n%s", out)
	}
	if !strings.Contains(out, "12.00%") {
		t.Errorf("missing formatted return in:\n%s", out)
	}

	buf.Reset()
	printComparison(&buf, &tradelab.Comparison{Ticker: "X", Period: "p"})
	if !strings.Contains(buf.String(), "no strategy could be evaluated") {
		t.Errorf("unexpected output for empty ranking: %s", buf.String())
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &tradelab.BacktestResult{
		Ticker: "SPY", Strategy: "buy_and_hold", StartDate: "2024-01-01", EndDate: "2024-02-15",
		InitialCapital: 10000, FinalCapital: 13000, TotalReturn: 0.3, Trades: 1,
	})
	out := buf.String()
	for _, want := range []string{"buy_and_hold", "13000.00", "30.00%", "2024-01-01 to 2024-02-15"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
