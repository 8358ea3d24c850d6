package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"tradelab/pkg/tradelab"
)

func jsonOutput(w io.Writer, in any) error {
	j, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(j))
	return err
}

// money renders v with two decimal places.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// pct renders a fraction as a percentage with two decimal places.
func pct(v float64) string {
	return decimal.NewFromFloat(v).Shift(2).StringFixed(2) + "%"
}

// ratio renders a unitless statistic with three decimal places.
func ratio(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

func printResult(w io.Writer, r *tradelab.BacktestResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if r.ID != "" {
		fmt.Fprintf(tw, "Run\t%s\n", r.ID)
	}
	fmt.Fprintf(tw, "Ticker\t%s\n", r.Ticker)
	fmt.Fprintf(tw, "Strategy\t%s\n", r.Strategy)
	fmt.Fprintf(tw, "Period\t%s to %s\n", r.StartDate, r.EndDate)
	fmt.Fprintf(tw, "Initial capital\t%s\n", money(r.InitialCapital))
	fmt.Fprintf(tw, "Final capital\t%s\n", money(r.FinalCapital))
	fmt.Fprintf(tw, "Total return\t%s\n", pct(r.TotalReturn))
	fmt.Fprintf(tw, "Annualized return\t%s\n", pct(r.AnnualizedReturn))
	fmt.Fprintf(tw, "Volatility\t%s\n", pct(r.Volatility))
	fmt.Fprintf(tw, "Sharpe ratio\t%s\n", ratio(r.SharpeRatio))
	fmt.Fprintf(tw, "Max drawdown\t%s\n", pct(r.MaxDrawdown))
	fmt.Fprintf(tw, "Win rate\t%s\n", pct(r.WinRate))
	fmt.Fprintf(tw, "Trades\t%d\n", r.Trades)
	tw.Flush()
}

func printComparison(w io.Writer, cmp *tradelab.Comparison) {
	fmt.Fprintf(w, "%s, %s\n\n", cmp.Ticker, cmp.Period)
	if len(cmp.RankedStrategies) == 0 {
		fmt.Fprintln(w, "no strategy could be evaluated")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tStrategy\tReturn\tSharpe\tDrawdown\tWin rate\t")
	for i, r := range cmp.RankedStrategies {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n", i+1, r.Name,
			pct(r.Metrics.TotalReturn), ratio(r.Metrics.SharpeRatio),
			pct(r.Metrics.MaxDrawdown), pct(r.Metrics.WinRate))
	}
	tw.Flush()
	fmt.Fprintf(w, "\nBest: %s\n", cmp.BestStrategy)
}

func printHistory(w io.Writer, runs []tradelab.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCreated\tTicker\tStrategy\tPeriod\tReturn\tSharpe")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s..%s\t%s\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Ticker, r.Strategy,
			r.StartDate, r.EndDate, pct(r.TotalReturn), ratio(r.SharpeRatio))
	}
	tw.Flush()
}
