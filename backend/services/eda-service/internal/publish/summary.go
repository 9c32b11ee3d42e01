// Package publish distributes the summary of an analysis run to external sinks.
package publish

import (
	"math"
	"time"

	"chargeinsight/backend/services/eda-service/internal/analysis"
)

// Stat is the describe row of one numeric column. Nil marks an undefined value.
type Stat struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	P25    *float64 `json:"p25"`
	P50    *float64 `json:"p50"`
	P75    *float64 `json:"p75"`
	Max    *float64 `json:"max"`
}

// Outliers summarises the duration outliers of a run.
type Outliers struct {
	Quantile   float64  `json:"quantile"`
	Threshold  *float64 `json:"threshold"`
	Count      int      `json:"count"`
	Total      int      `json:"total"`
	Proportion *float64 `json:"proportion"`
}

// Correlation is a labelled coefficient matrix with nil for undefined cells.
type Correlation struct {
	Names  []string     `json:"names"`
	Values [][]*float64 `json:"values"`
}

// Summary is the payload published after a successful run.
type Summary struct {
	RunID       string      `json:"run_id"`
	Source      string      `json:"source"`
	GeneratedAt time.Time   `json:"generated_at"`
	Rows        int         `json:"rows"`
	Chargers    []string    `json:"chargers"`
	Describe    []Stat      `json:"describe"`
	Outliers    Outliers    `json:"outliers"`
	Numeric     Correlation `json:"numeric_correlation"`
	Temporal    Correlation `json:"temporal_correlation"`
	Plots       []string    `json:"plots"`
}

// Input carries the analysis results a Summary is built from.
type Input struct {
	RunID       string
	Source      string
	GeneratedAt time.Time
	Rows        int
	Chargers    []string
	Describe    []analysis.Summary
	Outliers    analysis.OutlierSet
	Numeric     analysis.Matrix
	Temporal    analysis.Matrix
	Plots       []string
}

// NewSummary converts analysis results into the published form.
func NewSummary(in Input) Summary {
	s := Summary{
		RunID:       in.RunID,
		Source:      in.Source,
		GeneratedAt: in.GeneratedAt.UTC(),
		Rows:        in.Rows,
		Chargers:    in.Chargers,
		Describe:    make([]Stat, len(in.Describe)),
		Outliers: Outliers{
			Quantile:   in.Outliers.Quantile,
			Threshold:  optional(in.Outliers.Threshold),
			Count:      in.Outliers.Count(),
			Total:      in.Outliers.Total,
			Proportion: optional(in.Outliers.Proportion),
		},
		Numeric:  correlation(in.Numeric),
		Temporal: correlation(in.Temporal),
		Plots:    in.Plots,
	}
	for i, d := range in.Describe {
		s.Describe[i] = Stat{
			Column: d.Column,
			Count:  d.Count,
			Mean:   optional(d.Mean),
			Std:    optional(d.Std),
			Min:    optional(d.Min),
			P25:    optional(d.P25),
			P50:    optional(d.P50),
			P75:    optional(d.P75),
			Max:    optional(d.Max),
		}
	}
	return s
}

func correlation(m analysis.Matrix) Correlation {
	out := Correlation{Names: m.Names, Values: make([][]*float64, m.Dim())}
	if m.Dim() == 0 {
		return out
	}
	for i, row := range m.Rows() {
		out.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			out.Values[i][j] = optional(v)
		}
	}
	return out
}

// optional maps NaN and infinities to nil, which both JSON and msgpack can carry.
func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
