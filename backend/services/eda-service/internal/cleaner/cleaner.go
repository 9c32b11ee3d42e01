// Package cleaner turns raw charging event rows into typed events and persists the result.
package cleaner

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"chargeinsight/backend/services/eda-service/internal/models"
)

// StartTimeLayout is the day.month.year hour:minute format of the export.
const StartTimeLayout = "02.01.2006 15:04"

const op = "clean"

var errRequiredColumn = errors.New("required column missing")

// Clean parses start times, coerces the meter columns, reports nulls and fills missing
// charger names. The missing report reflects the table before the fill.
func Clean(raw *models.RawTable) (*models.EventTable, models.MissingReport, error) {
	idx := make(map[string]int, len(models.RequiredColumns))
	for _, col := range models.RequiredColumns {
		i := raw.ColumnIndex(col)
		if i < 0 {
			return nil, models.MissingReport{}, &models.Error{Kind: models.ErrParse, Op: op, Column: col, Err: errRequiredColumn}
		}
		idx[col] = i
	}

	table := &models.EventTable{
		Header: append([]string(nil), raw.Header...),
		Cells:  make([][]string, len(raw.Rows)),
		Events: make([]models.ChargingEvent, len(raw.Rows)),
	}

	for r, record := range raw.Rows {
		row := r + 1
		table.Cells[r] = append([]string(nil), record...)

		start, err := ParseStartTime(record[idx[models.ColStartTime]])
		if err != nil {
			return nil, models.MissingReport{}, &models.Error{
				Kind:   models.ErrParse,
				Op:     op,
				Row:    row,
				Column: models.ColStartTime,
				Value:  record[idx[models.ColStartTime]],
				Err:    err,
			}
		}

		meters := make([]float64, len(models.MeterColumns))
		for m, col := range models.MeterColumns {
			v, err := ParseNumber(record[idx[col]])
			if err != nil {
				return nil, models.MissingReport{}, &models.Error{
					Kind:   models.ErrTypeConversion,
					Op:     op,
					Row:    row,
					Column: col,
					Value:  record[idx[col]],
					Err:    err,
				}
			}
			meters[m] = v
		}

		table.Events[r] = models.ChargingEvent{
			StartTime:       start,
			MeterStartWh:    meters[0],
			MeterEndWh:      meters[1],
			MeterTotalWh:    meters[2],
			DurationSeconds: meters[3],
			ChargerName:     record[idx[models.ColChargerName]],
		}
	}

	report := Missing(table)
	FillChargerNames(table)

	return table, report, nil
}

// ParseStartTime parses a StartTimeLayout value as UTC wall-clock time.
func ParseStartTime(value string) (time.Time, error) {
	return time.ParseInLocation(StartTimeLayout, strings.TrimSpace(value), time.UTC)
}

// ParseNumber converts a cell to float64. Null cells become NaN.
func ParseNumber(cell string) (float64, error) {
	if models.IsMissing(cell) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}

// Missing counts null cells per column.
func Missing(table *models.EventTable) models.MissingReport {
	report := models.MissingReport{Rows: table.Len(), Columns: make([]models.ColumnMissing, len(table.Header))}
	for c, name := range table.Header {
		count := 0
		for _, cells := range table.Cells {
			if models.IsMissing(cells[c]) {
				count++
			}
		}
		percent := math.NaN()
		if table.Len() > 0 {
			percent = float64(count) / float64(table.Len()) * 100
		}
		report.Columns[c] = models.ColumnMissing{Column: name, Count: count, Percent: percent}
	}
	return report
}

// FillChargerNames replaces null charger names with models.UnknownCharger.
func FillChargerNames(table *models.EventTable) {
	col := table.ColumnIndex(models.ColChargerName)
	for r := range table.Events {
		if !models.IsMissing(table.Events[r].ChargerName) {
			continue
		}
		table.Events[r].ChargerName = models.UnknownCharger
		if col >= 0 {
			table.Cells[r][col] = models.UnknownCharger
		}
	}
}
