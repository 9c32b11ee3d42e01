package render

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/models"
)

const (
	maxBins    = 500
	kdePoints  = 200
	countLabel = "Count"
)

func overallHistograms(in Input) ([]*plot.Plot, error) {
	totals, _ := in.Table.Meter(models.ColMeterTotal)
	durations, _ := in.Table.Meter(models.ColTotalDuration)

	energy, err := histogram("Histogram of Meter Total(Wh)", models.ColMeterTotal, totals)
	if err != nil {
		return nil, err
	}
	duration, err := histogram("Histogram of Total Duration (s)", models.ColTotalDuration, durations)
	if err != nil {
		return nil, err
	}
	return []*plot.Plot{energy, duration}, nil
}

func eventsByPeriod(in Input) ([]*plot.Plot, error) {
	hours := make([]float64, in.Derived.Len())
	days := make([]int, len(models.WeekdayLabels()))
	for i, row := range in.Derived.Rows {
		hours[i] = float64(row.Hour)
		days[row.OrderedDayOfWeek]++
	}

	byHour, err := histogram("Distribution of Charging Events by Hour", "Hour", hours)
	if err != nil {
		return nil, err
	}
	byDay, err := countBars("Distribution of Charging Events by Day of Week", "Ordered Day of Week", models.WeekdayLabels(), days)
	if err != nil {
		return nil, err
	}
	return []*plot.Plot{byHour, byDay}, nil
}

func eventsByMonth(in Input) ([]*plot.Plot, error) {
	p, err := countBars("Distribution of Charging Events by Month", "Month", in.Derived.YearMonth.Categories, in.Derived.YearMonth.Counts())
	if err != nil {
		return nil, err
	}
	if len(in.Derived.YearMonth.Categories) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
	}
	return []*plot.Plot{p}, nil
}

// histogram draws counts per bin with a Gaussian KDE scaled to the same units.
func histogram(title, xlabel string, values []float64) (*plot.Plot, error) {
	p := newPlot(title, xlabel, countLabel)

	clean := finite(values)
	if len(clean) == 0 {
		return p, nil
	}

	h, err := plotter.NewHist(plotter.Values(clean), Bins(clean))
	if err != nil {
		return nil, err
	}
	h.FillColor = barFill
	h.LineStyle.Color = barEdge
	p.Add(h)

	if xys, ok := KDE(clean, float64(len(clean))*h.Width); ok {
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Color = kdeColor
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
	}
	return p, nil
}

// countBars draws one bar per category in the given order.
func countBars(title, xlabel string, labels []string, counts []int) (*plot.Plot, error) {
	p := newPlot(title, xlabel, countLabel)
	if len(counts) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	bars, err := plotter.NewBarChart(values, barWidth(len(values)))
	if err != nil {
		return nil, err
	}
	bars.Color = barFill
	bars.LineStyle.Color = barEdge
	p.Add(bars)
	p.NominalX(labels...)
	return p, nil
}

// Bins picks a bin count as the finer of the Sturges and Freedman-Diaconis rules.
func Bins(values []float64) int {
	n := len(values)
	if n == 0 {
		return 1
	}
	span := floats.Max(values) - floats.Min(values)
	if span == 0 {
		return 1
	}

	width := span / (math.Log2(float64(n)) + 1)
	iqr := analysis.Percentile(values, 0.75) - analysis.Percentile(values, 0.25)
	if fd := 2 * iqr * math.Pow(float64(n), -1.0/3); fd > 0 && fd < width {
		width = fd
	}

	bins := int(math.Ceil(span / width))
	switch {
	case bins < 1:
		return 1
	case bins > maxBins:
		return maxBins
	}
	return bins
}

// KDE evaluates a Gaussian kernel density estimate with Scott's bandwidth over the
// data range, multiplied by scale. It reports false when the data has no spread.
func KDE(values []float64, scale float64) (plotter.XYs, bool) {
	n := len(values)
	if n < 2 {
		return nil, false
	}
	sd := stat.StdDev(values, nil)
	if sd == 0 || math.IsNaN(sd) {
		return nil, false
	}
	bw := sd * math.Pow(float64(n), -1.0/5)
	lo, hi := floats.Min(values), floats.Max(values)

	kernel := distuv.Normal{Mu: 0, Sigma: bw}
	xys := make(plotter.XYs, kdePoints)
	step := (hi - lo) / float64(kdePoints-1)
	for i := range xys {
		x := lo + float64(i)*step
		density := 0.0
		for _, v := range values {
			density += kernel.Prob(x - v)
		}
		xys[i].X = x
		xys[i].Y = density / float64(n) * scale
	}
	return xys, true
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func barWidth(n int) vg.Length {
	w := 360.0 / float64(n)
	switch {
	case w < 4:
		w = 4
	case w > 40:
		w = 40
	}
	return vg.Points(w)
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}
