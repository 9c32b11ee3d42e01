package analysis

import (
	"math"
	"sort"
)

// Percentile returns the q-quantile (0 <= q <= 1) of values by linear interpolation
// between the two nearest order statistics. NaN values are ignored; an empty input
// or a q outside [0, 1] yields NaN.
func Percentile(values []float64, q float64) float64 {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN()
	}
	sorted := dropNaN(values)
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)

	h := float64(n)*q + (1 - q) - 1
	if h <= 0 {
		return sorted[0]
	}
	lo := math.Floor(h)
	frac := h - lo

	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return lerp(sorted[i], sorted[i+1], frac)
}

// lerp interpolates from the nearer end so that t=0 and t=1 return a and b exactly.
func lerp(a, b, t float64) float64 {
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}
