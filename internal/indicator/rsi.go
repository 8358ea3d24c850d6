package indicator

// RSI computes the relative strength index over p price changes. Average gain
// and loss are plain rolling means of the last p changes rather than Wilder's
// exponential smoothing. A window without losses reads 100.
//
// The first p entries are NaN: bar 0 has no change and the mean needs p
// changes.
func RSI(x []float64, p int) []float64 {
	out := nanSeries(len(x))
	if p <= 0 || len(x) <= p {
		return out
	}
	gains := make([]float64, len(x))
	losses := make([]float64, len(x))
	for i := 1; i < len(x); i++ {
		delta := x[i] - x[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	for i := p; i < len(x); i++ {
		var sumGain, sumLoss float64
		for j := i - p + 1; j <= i; j++ {
			sumGain += gains[j]
			sumLoss += losses[j]
		}
		if sumLoss == 0 {
			out[i] = 100
			continue
		}
		rs := sumGain / sumLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
