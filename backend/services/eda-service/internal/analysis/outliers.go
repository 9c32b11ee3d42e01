package analysis

import (
	"math"
	"strconv"
)

// DefaultOutlierQuantile marks the top 5% of durations as outliers.
const DefaultOutlierQuantile = 0.95

// OutlierSet lists rows whose value is strictly above the quantile threshold.
type OutlierSet struct {
	Quantile   float64
	Threshold  float64
	Rows       []int
	Total      int
	Proportion float64
}

// Count returns the number of outlier rows.
func (o OutlierSet) Count() int {
	return len(o.Rows)
}

// FindOutliers flags every value strictly greater than the q-quantile of values.
// Proportion is the outlier share in percent, rounded to one decimal.
func FindOutliers(values []float64, q float64) OutlierSet {
	set := OutlierSet{Quantile: q, Threshold: Percentile(values, q), Total: len(values)}
	for i, v := range values {
		if v > set.Threshold {
			set.Rows = append(set.Rows, i)
		}
	}
	set.Proportion = math.NaN()
	if set.Total > 0 {
		set.Proportion = RoundDecimal(float64(len(set.Rows))/float64(set.Total)*100, 1)
	}
	return set
}

// RoundDecimal rounds v to the given number of decimals using the exact decimal
// value of v, with ties going to the even digit.
func RoundDecimal(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}
