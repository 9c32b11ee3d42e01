// Package analysis computes the descriptive statistics, outliers and correlations of a run.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"chargeinsight/backend/services/eda-service/internal/cleaner"
	"chargeinsight/backend/services/eda-service/internal/models"
)

// Column is a named numeric column. NaN marks a missing value.
type Column struct {
	Name   string
	Values []float64
}

// Summary is the describe() row of one column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	P50    float64
	P75    float64
	Max    float64
}

// NumericColumns returns, in header order, the meter columns plus every other column
// whose cells are all numeric or missing. Start time and charger name are never numeric.
func NumericColumns(table *models.EventTable) []Column {
	var out []Column
	for c, name := range table.Header {
		if values, ok := table.Meter(name); ok {
			out = append(out, Column{Name: name, Values: values})
			continue
		}
		if name == models.ColStartTime || name == models.ColChargerName {
			continue
		}
		values, ok := parseColumn(table, c)
		if ok {
			out = append(out, Column{Name: name, Values: values})
		}
	}
	return out
}

func parseColumn(table *models.EventTable, c int) ([]float64, bool) {
	values := make([]float64, len(table.Cells))
	for r, cells := range table.Cells {
		v, err := cleaner.ParseNumber(cells[c])
		if err != nil {
			return nil, false
		}
		values[r] = v
	}
	return values, true
}

// Describe summarises each column, skipping NaN. Std is the sample standard deviation.
func Describe(cols []Column) []Summary {
	out := make([]Summary, len(cols))
	for i, col := range cols {
		out[i] = describe(col)
	}
	return out
}

func describe(col Column) Summary {
	values := dropNaN(col.Values)
	s := Summary{Column: col.Name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	s.Mean = stat.Mean(values, nil)
	s.Std = math.NaN()
	if len(values) > 1 {
		s.Std = stat.StdDev(values, nil)
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.P25 = Percentile(values, 0.25)
	s.P50 = Percentile(values, 0.50)
	s.P75 = Percentile(values, 0.75)
	return s
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
