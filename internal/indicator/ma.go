package indicator

import "math"

// SMA is the arithmetic mean over the trailing p points. The first p-1
// entries are NaN.
func SMA(x []float64, p int) []float64 {
	out := nanSeries(len(x))
	if p <= 0 {
		return out
	}
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		if i >= p-1 {
			out[i] = sum / float64(p)
		}
	}
	return out
}

// EMA uses smoothing factor 2/(span+1) and is seeded with the first non-NaN
// input, so it is defined from that point on.
func EMA(x []float64, span int) []float64 {
	out := nanSeries(len(x))
	if span <= 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	seeded := false
	var prev float64
	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if !seeded {
			prev = v
			seeded = true
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RollingStd is the sample (n-1) standard deviation over the trailing p
// points. The first p-1 entries are NaN.
func RollingStd(x []float64, p int) []float64 {
	out := nanSeries(len(x))
	if p < 2 {
		return out
	}
	for i := p - 1; i < len(x); i++ {
		window := x[i-p+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(p)
		var ss float64
		for _, v := range window {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(p-1))
	}
	return out
}

// Bollinger returns the bands around SMA(p) at k standard deviations.
func Bollinger(x []float64, p int, k float64) (upper, middle, lower []float64) {
	middle = SMA(x, p)
	std := RollingStd(x, p)
	upper = make([]float64, len(x))
	lower = make([]float64, len(x))
	for i := range x {
		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}
	return upper, middle, lower
}
