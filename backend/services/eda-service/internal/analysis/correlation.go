package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"chargeinsight/backend/services/eda-service/internal/models"
)

// ColStartTimestamp names the derived Unix-seconds column.
const ColStartTimestamp = "Start Timestamp"

// Matrix is a labelled symmetric correlation matrix.
type Matrix struct {
	Names  []string
	Values *mat.SymDense
}

// Dim returns the number of variables.
func (m Matrix) Dim() int {
	return len(m.Names)
}

// At returns the coefficient between variables i and j.
func (m Matrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}

// Rows copies the matrix into a dense row-major slice.
func (m Matrix) Rows() [][]float64 {
	n := m.Dim()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}

// CorrelationMatrix computes pairwise Pearson coefficients over rows where both
// values are present. The diagonal is exactly 1 unless a column is constant.
func CorrelationMatrix(cols []Column) Matrix {
	n := len(cols)
	names := make([]string, n)
	for i, c := range cols {
		names[i] = c.Name
	}
	if n == 0 {
		return Matrix{Names: names}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, Pearson(cols[i].Values, cols[j].Values))
		}
	}
	return Matrix{Names: names, Values: sym}
}

// Pearson returns the correlation of x and y over pairwise complete observations.
// It is NaN when fewer than two pairs remain or either side has zero variance.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	if floats.Equal(xs, ys) {
		return 1
	}
	return stat.Correlation(xs, ys, nil)
}

func constant(values []float64) bool {
	return floats.Min(values) == floats.Max(values)
}

// NumericCorrelation correlates the four meter and duration columns.
func NumericCorrelation(table *models.EventTable) Matrix {
	cols := make([]Column, 0, len(models.MeterColumns))
	for _, name := range models.MeterColumns {
		values, _ := table.Meter(name)
		cols = append(cols, Column{Name: name, Values: values})
	}
	return CorrelationMatrix(cols)
}

// TemporalCorrelation correlates the start timestamp with the session duration.
func TemporalCorrelation(table *models.EventTable, derived *models.Derived) Matrix {
	stamps := make([]float64, derived.Len())
	for i, row := range derived.Rows {
		stamps[i] = float64(row.StartTimestamp)
	}
	durations, _ := table.Meter(models.ColTotalDuration)
	return CorrelationMatrix([]Column{
		{Name: ColStartTimestamp, Values: stamps},
		{Name: models.ColTotalDuration, Values: durations},
	})
}
