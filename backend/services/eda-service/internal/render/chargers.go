package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/models"
)

var (
	barFill  = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xb3}
	barEdge  = color.NRGBA{R: 0x1f, G: 0x4e, B: 0x79, A: 0xff}
	kdeColor = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// tab10 is the ten-colour categorical palette; scatter points use 70% opacity.
var tab10 = []color.NRGBA{
	{R: 0x1f, G: 0x77, B: 0xb4}, {R: 0xff, G: 0x7f, B: 0x0e}, {R: 0x2c, G: 0xa0, B: 0x2c},
	{R: 0xd6, G: 0x27, B: 0x28}, {R: 0x94, G: 0x67, B: 0xbd}, {R: 0x8c, G: 0x56, B: 0x4b},
	{R: 0xe3, G: 0x77, B: 0xc2}, {R: 0x7f, G: 0x7f, B: 0x7f}, {R: 0xbc, G: 0xbd, B: 0x22},
	{R: 0x17, G: 0xbe, B: 0xcf},
}

const scatterAlpha = 0.7

// PaletteColor returns the i-th categorical colour with the given opacity.
func PaletteColor(i int, alpha float64) color.NRGBA {
	c := tab10[i%len(tab10)]
	c.A = uint8(math.Round(alpha * 255))
	return c
}

// groupErrors positions ±1 standard deviation bars over each charger's mean.
type groupErrors struct {
	groups []analysis.GroupStat
}

func (g groupErrors) Len() int { return len(g.groups) }

func (g groupErrors) XY(i int) (float64, float64) {
	return float64(i), zeroIfNaN(g.groups[i].Mean)
}

func (g groupErrors) YError(i int) (float64, float64) {
	sd := zeroIfNaN(g.groups[i].Std)
	return sd, sd
}

func chargerMeans(in Input) ([]*plot.Plot, error) {
	p := newPlot("Mean Meter Total(Wh) by Charger", models.ColChargerName, models.ColMeterTotal)
	if len(in.Chargers) == 0 {
		return []*plot.Plot{p}, nil
	}

	names := make([]string, len(in.Chargers))
	means := make(plotter.Values, len(in.Chargers))
	for i, g := range in.Chargers {
		names[i] = g.Name
		means[i] = zeroIfNaN(g.Mean)
	}

	bars, err := plotter.NewBarChart(means, barWidth(len(means)))
	if err != nil {
		return nil, err
	}
	bars.Color = barFill
	bars.LineStyle.Color = barEdge

	errBars, err := plotter.NewYErrorBars(groupErrors{groups: in.Chargers})
	if err != nil {
		return nil, err
	}
	errBars.LineStyle.Width = vg.Points(1.5)

	p.Add(bars, errBars)
	p.NominalX(names...)
	return []*plot.Plot{p}, nil
}

func energyVsDuration(in Input) ([]*plot.Plot, error) {
	p := newPlot("Meter Total(Wh) vs. Total Duration (s)", models.ColMeterTotal, models.ColTotalDuration)
	totals, _ := in.Table.Meter(models.ColMeterTotal)
	durations, _ := in.Table.Meter(models.ColTotalDuration)

	order := make([]string, 0)
	points := make(map[string]plotter.XYs)
	for i, name := range in.Table.ChargerNames() {
		if _, ok := points[name]; !ok {
			order = append(order, name)
			points[name] = plotter.XYs{}
		}
		x, y := totals[i], durations[i]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		points[name] = append(points[name], plotter.XY{X: x, Y: y})
	}

	for i, name := range order {
		if len(points[name]) == 0 {
			continue
		}
		s, err := plotter.NewScatter(points[name])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = PaletteColor(i, scatterAlpha)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add(name, s)
	}
	p.Legend.Top = true
	return []*plot.Plot{p}, nil
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
