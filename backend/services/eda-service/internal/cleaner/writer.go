package cleaner

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"chargeinsight/backend/services/eda-service/internal/models"
)

// CleanedTimeLayout is how start times are written to the cleaned file.
const CleanedTimeLayout = "2006-01-02 15:04:05"

// WriteCSV persists the cleaned table to path with a header row and no index column.
func WriteCSV(table *models.EventTable, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &models.Error{Kind: models.ErrIO, Op: "persist", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &models.Error{Kind: models.ErrIO, Op: "persist", Path: path, Err: cerr}
		}
	}()

	if err := Encode(f, table); err != nil {
		return &models.Error{Kind: models.ErrIO, Op: "persist", Path: path, Err: err}
	}
	return nil
}

// Encode writes the table as CSV. Start time, meter start and duration use their
// typed form; every other column keeps its source text.
func Encode(w io.Writer, table *models.EventTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}

	for r := range table.Events {
		if err := cw.Write(Record(table, r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Record returns row r formatted as it is written to the cleaned file.
func Record(table *models.EventTable, r int) []string {
	ev := table.Events[r]
	record := make([]string, len(table.Header))
	for c, name := range table.Header {
		switch name {
		case models.ColStartTime:
			record[c] = ev.StartTime.Format(CleanedTimeLayout)
		case models.ColMeterStart:
			record[c] = FormatFloat(ev.MeterStartWh)
		case models.ColTotalDuration:
			record[c] = FormatFloat(ev.DurationSeconds)
		case models.ColChargerName:
			record[c] = ev.ChargerName
		default:
			record[c] = table.Cells[r][c]
			if models.IsMissing(record[c]) {
				record[c] = ""
			}
		}
	}
	return record
}

// FormatFloat renders v in shortest round-trip form, keeping a ".0" on integral
// values so the column still reads as floating point. NaN is written empty.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e16 {
		return strconv.FormatFloat(v, 'f', -1, 64) + ".0"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.Contains(s, "e") {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
