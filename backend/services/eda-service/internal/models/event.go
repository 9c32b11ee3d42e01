package models

import (
	"strings"
	"time"
)

// Column names of the charging event export.
const (
	ColStartTime     = "Start Time"
	ColMeterStart    = "Meter Start (Wh)"
	ColMeterEnd      = "Meter End(Wh)"
	ColMeterTotal    = "Meter Total(Wh)"
	ColTotalDuration = "Total Duration (s)"
	ColChargerName   = "Charger_name"
)

// UnknownCharger replaces missing charger names.
const UnknownCharger = "unknown"

// MeterColumns are the numeric columns of a charging event, in correlation order.
var MeterColumns = []string{ColMeterStart, ColMeterEnd, ColMeterTotal, ColTotalDuration}

// RequiredColumns must all be present in the input header.
var RequiredColumns = []string{ColStartTime, ColMeterStart, ColMeterEnd, ColMeterTotal, ColTotalDuration, ColChargerName}

// naTokens mirror the strings common CSV tooling reads as null.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw CSV cell represents a null value.
func IsMissing(cell string) bool {
	_, ok := naTokens[strings.TrimSpace(cell)]
	return ok
}

// RawTable is a CSV file as read: header plus string cells in file order.
type RawTable struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *RawTable) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of name in the header or -1.
func (t *RawTable) ColumnIndex(name string) int {
	return indexOf(t.Header, name)
}

// ChargingEvent is one cleaned charging session. Missing meter values are NaN.
type ChargingEvent struct {
	StartTime       time.Time
	MeterStartWh    float64
	MeterEndWh      float64
	MeterTotalWh    float64
	DurationSeconds float64
	ChargerName     string
}

// EventTable is the cleaned table. Cells keeps the source text of every column so
// columns outside the charging event schema survive the round trip to disk.
type EventTable struct {
	Header []string
	Cells  [][]string
	Events []ChargingEvent
}

// Len returns the number of rows.
func (t *EventTable) Len() int {
	return len(t.Events)
}

// ColumnIndex returns the position of name in the header or -1.
func (t *EventTable) ColumnIndex(name string) int {
	return indexOf(t.Header, name)
}

// Meter returns the values of one of MeterColumns.
func (t *EventTable) Meter(name string) ([]float64, bool) {
	var pick func(ChargingEvent) float64
	switch name {
	case ColMeterStart:
		pick = func(e ChargingEvent) float64 { return e.MeterStartWh }
	case ColMeterEnd:
		pick = func(e ChargingEvent) float64 { return e.MeterEndWh }
	case ColMeterTotal:
		pick = func(e ChargingEvent) float64 { return e.MeterTotalWh }
	case ColTotalDuration:
		pick = func(e ChargingEvent) float64 { return e.DurationSeconds }
	default:
		return nil, false
	}
	out := make([]float64, len(t.Events))
	for i, e := range t.Events {
		out[i] = pick(e)
	}
	return out, true
}

// ChargerNames returns the charger name of every row.
func (t *EventTable) ChargerNames() []string {
	out := make([]string, len(t.Events))
	for i, e := range t.Events {
		out[i] = e.ChargerName
	}
	return out
}

// ColumnMissing is the null statistic of one column.
type ColumnMissing struct {
	Column  string
	Count   int
	Percent float64
}

// MissingReport lists null statistics in header order.
type MissingReport struct {
	Rows    int
	Columns []ColumnMissing
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
