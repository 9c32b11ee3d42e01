// Package render draws the EDA plots as PNG files.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/models"
)

// Output file names inside the plots directory.
const (
	FileOverallHistogram    = "overall_histogram.png"
	FileEventsByPeriod      = "event_by_period.png"
	FileEventsByMonth       = "event_by_month.png"
	FileNumericCorrelation  = "correlation_between_numerical variables.png"
	FileChargerMeans        = "Meter Total(Wh) by charger.png"
	FileEnergyVsDuration    = "Whatts vs Seconds scatterplot.png"
	FileTemporalCorrelation = "correlation_start_time_duration.png"
)

// Input is everything the plots are drawn from. Nothing in it is modified.
type Input struct {
	Table    *models.EventTable
	Derived  *models.Derived
	Numeric  analysis.Matrix
	Temporal analysis.Matrix
	Chargers []analysis.GroupStat
}

type figure struct {
	file   string
	width  vg.Length
	height vg.Length
	build  func(Input) ([]*plot.Plot, error)
}

var figures = []figure{
	{file: FileOverallHistogram, width: 10 * vg.Inch, height: 5 * vg.Inch, build: overallHistograms},
	{file: FileEventsByPeriod, width: 15 * vg.Inch, height: 5 * vg.Inch, build: eventsByPeriod},
	{file: FileEventsByMonth, width: 6.4 * vg.Inch, height: 4.8 * vg.Inch, build: eventsByMonth},
	{file: FileNumericCorrelation, width: 8 * vg.Inch, height: 6 * vg.Inch, build: numericHeatmap},
	{file: FileChargerMeans, width: 10 * vg.Inch, height: 6 * vg.Inch, build: chargerMeans},
	{file: FileEnergyVsDuration, width: 8 * vg.Inch, height: 6 * vg.Inch, build: energyVsDuration},
	{file: FileTemporalCorrelation, width: 6.4 * vg.Inch, height: 4.8 * vg.Inch, build: temporalHeatmap},
}

// Renderer writes plots into an existing directory.
type Renderer struct {
	dir    string
	logger *zap.Logger
}

// New returns a renderer for dir.
func New(dir string, logger *zap.Logger) *Renderer {
	return &Renderer{dir: dir, logger: logger}
}

// RenderAll draws every figure in order and returns the written paths.
// The first failure stops the run.
func (r *Renderer) RenderAll(in Input) ([]string, error) {
	if err := r.checkDir(); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(figures))
	for _, fig := range figures {
		started := time.Now()
		path := filepath.Join(r.dir, fig.file)

		plots, err := fig.build(in)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", fig.file, err)
		}
		if err := save(path, fig.width, fig.height, plots...); err != nil {
			return written, err
		}

		written = append(written, path)
		r.logger.Debug("plot written",
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
	return written, nil
}

func (r *Renderer) checkDir() error {
	info, err := os.Stat(r.dir)
	if err != nil {
		return &models.Error{Kind: models.ErrIO, Op: "render", Path: r.dir, Err: err}
	}
	if !info.IsDir() {
		return &models.Error{Kind: models.ErrIO, Op: "render", Path: r.dir, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

// save lays the plots out side by side on one canvas and encodes it as PNG.
func save(path string, width, height vg.Length, plots ...*plot.Plot) (err error) {
	img := vgimg.New(width, height)
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows:      1,
		Cols:      len(plots),
		PadX:      8 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  4 * vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{plots}, tiles, dc)
	for i, p := range plots {
		p.Draw(canvases[0][i])
	}

	f, err := os.Create(path)
	if err != nil {
		return &models.Error{Kind: models.ErrIO, Op: "render", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &models.Error{Kind: models.ErrIO, Op: "render", Path: path, Err: cerr}
		}
	}()

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		return &models.Error{Kind: models.ErrIO, Op: "render", Path: path, Err: err}
	}
	return nil
}
