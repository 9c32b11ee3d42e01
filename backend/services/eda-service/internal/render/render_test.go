package render

import (
	"errors"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/derive"
	"chargeinsight/backend/services/eda-service/internal/models"
)

func fixture(t *testing.T) Input {
	t.Helper()

	base := time.Date(2023, 9, 28, 6, 15, 0, 0, time.UTC)
	chargers := []string{"Charger 1", "Charger 2", models.UnknownCharger}
	table := &models.EventTable{Header: models.RequiredColumns}
	for i := 0; i < 40; i++ {
		total := float64(2000 + 350*(i%9))
		duration := float64(1800 + 240*(i%11))
		if i == 7 {
			duration = math.NaN()
		}
		table.Events = append(table.Events, models.ChargingEvent{
			StartTime:       base.Add(time.Duration(i) * 61 * time.Hour),
			MeterStartWh:    float64(1000 * i),
			MeterEndWh:      float64(1000*i) + total,
			MeterTotalWh:    total,
			DurationSeconds: duration,
			ChargerName:     chargers[i%len(chargers)],
		})
		table.Cells = append(table.Cells, make([]string, len(models.RequiredColumns)))
	}

	derived, err := derive.Derive(table)
	require.NoError(t, err)

	totals, _ := table.Meter(models.ColMeterTotal)
	return Input{
		Table:    table,
		Derived:  derived,
		Numeric:  analysis.NumericCorrelation(table),
		Temporal: analysis.TemporalCorrelation(table, derived),
		Chargers: analysis.GroupBy(table.ChargerNames(), totals),
	}
}

func TestRenderAllWritesEveryFigure(t *testing.T) {
	dir := t.TempDir()
	in := fixture(t)

	paths, err := New(dir, zap.NewNop()).RenderAll(in)
	require.NoError(t, err)

	want := []string{
		FileOverallHistogram, FileEventsByPeriod, FileEventsByMonth, FileNumericCorrelation,
		FileChargerMeans, FileEnergyVsDuration, FileTemporalCorrelation,
	}
	require.Len(t, paths, len(want))
	for i, name := range want {
		assert.Equal(t, filepath.Join(dir, name), paths[i])

		f, err := os.Open(paths[i])
		require.NoError(t, err)
		cfg, err := png.DecodeConfig(f)
		f.Close()
		require.NoError(t, err, name)
		assert.Positive(t, cfg.Width)
		assert.Positive(t, cfg.Height)
	}
}

func TestRenderAllRequiresExistingDir(t *testing.T) {
	in := fixture(t)

	_, err := New(filepath.Join(t.TempDir(), "Plots"), zap.NewNop()).RenderAll(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIO))

	file := filepath.Join(t.TempDir(), "Plots")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = New(file, zap.NewNop()).RenderAll(in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrIO))
}

func TestRenderHandlesEmptyTable(t *testing.T) {
	table := &models.EventTable{Header: models.RequiredColumns}
	derived, err := derive.Derive(table)
	require.NoError(t, err)

	in := Input{
		Table:    table,
		Derived:  derived,
		Numeric:  analysis.NumericCorrelation(table),
		Temporal: analysis.TemporalCorrelation(table, derived),
	}
	paths, err := New(t.TempDir(), zap.NewNop()).RenderAll(in)
	require.NoError(t, err)
	assert.Len(t, paths, len(figures))
}

func TestBins(t *testing.T) {
	assert.Equal(t, 1, Bins(nil))
	assert.Equal(t, 1, Bins([]float64{3, 3, 3}))

	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	// Sturges: 1+log2(100) ≈ 7.64 bins; Freedman-Diaconis is coarser here.
	assert.Equal(t, 8, Bins(values))
}

func TestKDEIntegratesToScale(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5}
	xys, ok := KDE(values, 1)
	require.True(t, ok)
	require.Len(t, xys, kdePoints)

	area := 0.0
	for i := 1; i < len(xys); i++ {
		area += (xys[i].X - xys[i-1].X) * (xys[i].Y + xys[i-1].Y) / 2
	}
	assert.Greater(t, area, 0.7)
	assert.Less(t, area, 1.0)

	_, ok = KDE([]float64{2, 2}, 1)
	assert.False(t, ok)
}

func TestCorrGridPutsFirstVariableOnTop(t *testing.T) {
	m := analysis.CorrelationMatrix([]analysis.Column{
		{Name: "a", Values: []float64{1, 2, 3}},
		{Name: "b", Values: []float64{3, 2, 1}},
	})
	g := corrGrid{m: m}

	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 1.0, g.Z(0, 1))
	assert.InDelta(t, -1.0, g.Z(1, 1), 1e-12)
	assert.InDelta(t, -1.0, g.Z(0, 0), 1e-12)
}

func TestAnnotation(t *testing.T) {
	assert.Equal(t, "0.99", Annotation(0.986))
	assert.Equal(t, "-0.50", Annotation(-0.5))
	assert.Equal(t, "nan", Annotation(math.NaN()))
}

func TestPaletteColorCyclesWithAlpha(t *testing.T) {
	c := PaletteColor(10, scatterAlpha)
	assert.Equal(t, tab10[0].R, c.R)
	assert.Equal(t, uint8(179), c.A)
}
