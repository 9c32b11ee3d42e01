package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// GroupStat is the mean and sample standard deviation of one category.
type GroupStat struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
}

// GroupBy aggregates values per key, keeping keys in order of first appearance.
func GroupBy(keys []string, values []float64) []GroupStat {
	order := make([]string, 0)
	buckets := make(map[string][]float64)
	for i, key := range keys {
		if _, ok := buckets[key]; !ok {
			order = append(order, key)
			buckets[key] = nil
		}
		if i < len(values) && !math.IsNaN(values[i]) {
			buckets[key] = append(buckets[key], values[i])
		}
	}

	out := make([]GroupStat, len(order))
	for i, key := range order {
		vs := buckets[key]
		g := GroupStat{Name: key, Count: len(vs), Mean: math.NaN(), Std: math.NaN()}
		if len(vs) > 0 {
			g.Mean = stat.Mean(vs, nil)
		}
		if len(vs) > 1 {
			g.Std = stat.StdDev(vs, nil)
		}
		out[i] = g
	}
	return out
}
