package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/cleaner"
	"chargeinsight/backend/services/eda-service/internal/derive"
	"chargeinsight/backend/services/eda-service/internal/loader"
	"chargeinsight/backend/services/eda-service/internal/models"
	"chargeinsight/backend/services/eda-service/internal/publish"
	"chargeinsight/backend/services/eda-service/internal/render"
	"chargeinsight/backend/services/eda-service/internal/report"
)

// EventExporter persists the cleaned events of a run.
type EventExporter interface {
	EnsureSchema(ctx context.Context) error
	ReplaceRun(ctx context.Context, runID string, table *models.EventTable) (int64, error)
}

// Options are the per-run file locations and analysis parameters.
type Options struct {
	InputPath       string
	CleanedPath     string
	PlotsDir        string
	OutlierQuantile float64
	HeadRows        int
}

// Result collects what a run produced.
type Result struct {
	RunID       string
	Rows        int
	Missing     models.MissingReport
	Describe    []analysis.Summary
	Outliers    analysis.OutlierSet
	Numeric     analysis.Matrix
	Temporal    analysis.Matrix
	Chargers    []analysis.GroupStat
	CleanedPath string
	Plots       []string
}

// EDAService runs the load, clean, derive, analyse and render pipeline once per call.
type EDAService struct {
	opts      Options
	out       io.Writer
	exporter  EventExporter
	publisher publish.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewEDAService builds service. exporter and publisher may be nil.
func NewEDAService(
	opts Options,
	out io.Writer,
	exporter EventExporter,
	publisher publish.Publisher,
	logger *zap.Logger,
) *EDAService {
	if opts.OutlierQuantile == 0 {
		opts.OutlierQuantile = analysis.DefaultOutlierQuantile
	}
	return &EDAService{
		opts:      opts,
		out:       out,
		exporter:  exporter,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes the pipeline. The report goes to the service writer; any stage error
// aborts the run and is returned unchanged.
func (s *EDAService) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), CleanedPath: s.opts.CleanedPath}
	logger := s.logger.With(zap.String("run_id", res.RunID))
	printer := report.New(s.out)
	started := s.now()

	var raw *models.RawTable
	if err := s.stage(ctx, logger, "load", func() error {
		var err error
		raw, err = loader.Load(s.opts.InputPath)
		return err
	}); err != nil {
		return nil, err
	}
	printer.Head(raw, s.opts.HeadRows)

	var table *models.EventTable
	if err := s.stage(ctx, logger, "clean", func() error {
		var err error
		table, res.Missing, err = cleaner.Clean(raw)
		return err
	}); err != nil {
		return nil, err
	}
	res.Rows = table.Len()
	printer.Info(table)
	printer.Missing(res.Missing)

	if err := s.stage(ctx, logger, "write_cleaned", func() error {
		return cleaner.WriteCSV(table, s.opts.CleanedPath)
	}); err != nil {
		return nil, err
	}

	if s.exporter != nil {
		if err := s.stage(ctx, logger, "export", func() error {
			if err := s.exporter.EnsureSchema(ctx); err != nil {
				return err
			}
			n, err := s.exporter.ReplaceRun(ctx, res.RunID, table)
			logger.Info("events exported", zap.Int64("rows", n))
			return err
		}); err != nil {
			return nil, err
		}
	}

	res.Describe = analysis.Describe(analysis.NumericColumns(table))
	printer.Describe(res.Describe)

	var derived *models.Derived
	if err := s.stage(ctx, logger, "derive", func() error {
		var err error
		derived, err = derive.Derive(table)
		return err
	}); err != nil {
		return nil, err
	}

	durations, _ := table.Meter(models.ColTotalDuration)
	totals, _ := table.Meter(models.ColMeterTotal)
	res.Outliers = analysis.FindOutliers(durations, s.opts.OutlierQuantile)
	res.Numeric = analysis.NumericCorrelation(table)
	res.Temporal = analysis.TemporalCorrelation(table, derived)
	res.Chargers = analysis.GroupBy(table.ChargerNames(), totals)

	printer.Outliers(table, res.Outliers)
	printer.Correlation("Correlation between Start Time and Total Duration", res.Temporal)
	printer.Correlation("Correlation between numerical variables", res.Numeric)
	if err := printer.Err(); err != nil {
		return nil, &models.Error{Kind: models.ErrIO, Op: "report", Err: err}
	}

	if err := s.stage(ctx, logger, "render", func() error {
		var err error
		res.Plots, err = render.New(s.opts.PlotsDir, logger).RenderAll(render.Input{
			Table:    table,
			Derived:  derived,
			Numeric:  res.Numeric,
			Temporal: res.Temporal,
			Chargers: res.Chargers,
		})
		return err
	}); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		summary := publish.NewSummary(publish.Input{
			RunID:       res.RunID,
			Source:      s.opts.InputPath,
			GeneratedAt: s.now(),
			Rows:        res.Rows,
			Chargers:    distinct(table.ChargerNames()),
			Describe:    res.Describe,
			Outliers:    res.Outliers,
			Numeric:     res.Numeric,
			Temporal:    res.Temporal,
			Plots:       res.Plots,
		})
		// The analysis artifacts are already on disk, so a sink outage only warns.
		if err := s.stage(ctx, logger, "publish", func() error {
			return s.publisher.Publish(ctx, summary)
		}); err != nil {
			logger.Warn("failed to publish summary", zap.Error(err))
		}
	}

	logger.Info("analysis finished",
		zap.Int("rows", res.Rows),
		zap.Int("outliers", res.Outliers.Count()),
		zap.Int("plots", len(res.Plots)),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return res, nil
}

func (s *EDAService) stage(ctx context.Context, logger *zap.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	started := s.now()
	if err := fn(); err != nil {
		logger.Error("stage failed", zap.String("stage", name), zap.Error(err))
		return err
	}
	logger.Info("stage finished",
		zap.String("stage", name),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return nil
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
