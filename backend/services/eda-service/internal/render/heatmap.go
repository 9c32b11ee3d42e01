package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"

	"chargeinsight/backend/services/eda-service/internal/analysis"
)

// corrGrid adapts a correlation matrix to plotter.GridXYZ with variable 0 on the top row.
type corrGrid struct {
	m analysis.Matrix
}

func (g corrGrid) Dims() (c, r int) {
	n := g.m.Dim()
	return n, n
}

func (g corrGrid) Z(c, r int) float64 {
	return g.m.At(g.m.Dim()-1-r, c)
}

func (g corrGrid) X(c int) float64 { return float64(c) }

func (g corrGrid) Y(r int) float64 { return float64(r) }

func numericHeatmap(in Input) ([]*plot.Plot, error) {
	p, err := heatmap("Correlation Matrix for Numerical Columns", in.Numeric)
	if err != nil {
		return nil, err
	}
	return []*plot.Plot{p}, nil
}

func temporalHeatmap(in Input) ([]*plot.Plot, error) {
	p, err := heatmap("Correlation between Start Time and Total Duration (s)", in.Temporal)
	if err != nil {
		return nil, err
	}
	return []*plot.Plot{p}, nil
}

// heatmap colours coefficients on a fixed [-1, 1] blue-red scale and prints each
// value with two decimals in its cell.
func heatmap(title string, m analysis.Matrix) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	n := m.Dim()
	if n == 0 {
		return p, nil
	}

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)

	hm := plotter.NewHeatMap(corrGrid{m: m}, cmap.Palette(255))
	hm.Min = -1
	hm.Max = 1
	hm.NaN = color.Gray{Y: 210}
	p.Add(hm)

	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			xys = append(xys, plotter.XY{X: float64(j), Y: float64(n - 1 - i)})
			labels = append(labels, Annotation(m.At(i, j)))
		}
	}
	annotations, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, err
	}
	for i := range annotations.TextStyle {
		annotations.TextStyle[i].XAlign = text.XCenter
		annotations.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(annotations)

	rows := make([]string, n)
	for i, name := range m.Names {
		rows[n-1-i] = name
	}
	p.NominalX(m.Names...)
	p.NominalY(rows...)
	return p, nil
}

// Annotation formats a coefficient with two decimals.
func Annotation(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.2f", v)
}
