// Package report prints the read-only console diagnostics of an EDA run.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"chargeinsight/backend/services/eda-service/internal/analysis"
	"chargeinsight/backend/services/eda-service/internal/cleaner"
	"chargeinsight/backend/services/eda-service/internal/models"
)

// Printer writes report sections to w. Write errors are sticky and returned by Err.
type Printer struct {
	w   io.Writer
	err error
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Err returns the first write error.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) table(header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	p.err = tw.Flush()
}

// Head previews the first n raw rows.
func (p *Printer) Head(raw *models.RawTable, n int) {
	if n > raw.Len() {
		n = raw.Len()
	}
	if n <= 0 {
		p.printf("Empty dataset with columns: %s\n\n", strings.Join(raw.Header, ", "))
		return
	}

	records := make([][]string, 0, n+1)
	records = append(records, raw.Header)
	records = append(records, raw.Rows[:n]...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		p.printf("Preview unavailable: %v\n\n", df.Err)
		return
	}
	p.printf("%s\n\n", df.String())
}

// Info lists every column with its non-null count and type.
func (p *Printer) Info(table *models.EventTable) {
	numeric := make(map[string]bool)
	for _, col := range analysis.NumericColumns(table) {
		numeric[col.Name] = true
	}

	p.printf("%d entries, %d columns\n", table.Len(), len(table.Header))
	rows := make([][]string, len(table.Header))
	for c, name := range table.Header {
		nonNull := nonNullCount(table, c, name)
		kind := "string"
		switch {
		case name == models.ColStartTime:
			kind = "datetime"
		case numeric[name]:
			kind = "float64"
		}
		rows[c] = []string{strconv.Itoa(c), name, strconv.Itoa(nonNull) + " non-null", kind}
	}
	p.table([]string{"#", "Column", "Non-Null Count", "Dtype"}, rows)
	p.printf("\n")
}

// Missing prints null counts and percentages per column.
func (p *Printer) Missing(report models.MissingReport) {
	p.printf("Missing values in each column:\n")
	counts := make([][]string, len(report.Columns))
	shares := make([][]string, len(report.Columns))
	for i, c := range report.Columns {
		counts[i] = []string{c.Column, strconv.Itoa(c.Count)}
		shares[i] = []string{c.Column, formatFloat(c.Percent)}
	}
	p.table([]string{"Column", "Missing"}, counts)
	p.printf("Proportion of missing values in each column:\n")
	p.table([]string{"Column", "Percent"}, shares)
	p.printf("\n")
}

// Describe prints the summary statistics with one column per variable.
func (p *Printer) Describe(summaries []analysis.Summary) {
	p.printf("Descriptive statistics:\n")
	header := []string{""}
	for _, s := range summaries {
		header = append(header, s.Column)
	}

	stats := []struct {
		name string
		pick func(analysis.Summary) string
	}{
		{"count", func(s analysis.Summary) string { return formatFloat(float64(s.Count)) }},
		{"mean", func(s analysis.Summary) string { return formatFloat(s.Mean) }},
		{"std", func(s analysis.Summary) string { return formatFloat(s.Std) }},
		{"min", func(s analysis.Summary) string { return formatFloat(s.Min) }},
		{"25%", func(s analysis.Summary) string { return formatFloat(s.P25) }},
		{"50%", func(s analysis.Summary) string { return formatFloat(s.P50) }},
		{"75%", func(s analysis.Summary) string { return formatFloat(s.P75) }},
		{"max", func(s analysis.Summary) string { return formatFloat(s.Max) }},
	}

	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		row := []string{st.name}
		for _, s := range summaries {
			row = append(row, st.pick(s))
		}
		rows = append(rows, row)
	}
	p.table(header, rows)
	p.printf("\n")
}

// Outliers lists the outlier rows in cleaned form followed by their share.
func (p *Printer) Outliers(table *models.EventTable, set analysis.OutlierSet) {
	p.printf("Outliers in %s (threshold %s at the %s quantile):\n",
		models.ColTotalDuration, formatFloat(set.Threshold), strconv.FormatFloat(set.Quantile, 'f', -1, 64))

	rows := make([][]string, 0, set.Count())
	for _, r := range set.Rows {
		rows = append(rows, append([]string{strconv.Itoa(r)}, cleaner.Record(table, r)...))
	}
	p.table(append([]string{""}, table.Header...), rows)

	p.printf("Relative to the general duration of charging events, %s%% (i.e. %d) of the observations can be considered outliers.\n\n",
		strconv.FormatFloat(set.Proportion, 'f', 1, 64), set.Count())
}

// Correlation prints a labelled correlation matrix.
func (p *Printer) Correlation(title string, m analysis.Matrix) {
	p.printf("%s:\n", title)
	rows := make([][]string, m.Dim())
	for i, name := range m.Names {
		row := []string{name}
		for j := range m.Names {
			row = append(row, formatFloat(m.At(i, j)))
		}
		rows[i] = row
	}
	p.table(append([]string{""}, m.Names...), rows)
	p.printf("\n")
}

func nonNullCount(table *models.EventTable, c int, name string) int {
	if name == models.ColStartTime || name == models.ColChargerName {
		return table.Len()
	}
	count := 0
	if values, ok := table.Meter(name); ok {
		for _, v := range values {
			if !math.IsNaN(v) {
				count++
			}
		}
		return count
	}
	for _, cells := range table.Cells {
		if !models.IsMissing(cells[c]) {
			count++
		}
	}
	return count
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}
