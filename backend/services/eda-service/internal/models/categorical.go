package models

import (
	"fmt"
	"time"
)

// Weekday is a day of week with Sunday=0; its value is also its display rank.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var monthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayLabels[d]
}

// Valid reports whether d is one of the seven labelled days.
func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// WeekdayLabels returns the fixed Sun..Sat display order.
func WeekdayLabels() []string {
	out := make([]string, len(weekdayLabels))
	copy(out, weekdayLabels[:])
	return out
}

// MonthLabel returns the short English name of month 1..12, or "" otherwise.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthLabels[month-1]
}

// Period is a calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf returns the month containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses the YYYY-MM form produced by Period.String.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, fmt.Errorf("period %q: %w", s, err)
	}
	return PeriodOf(t), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Before orders periods chronologically.
func (p Period) Before(o Period) bool {
	return p.ordinal() < o.ordinal()
}

func (p Period) ordinal() int {
	return p.Year*12 + int(p.Month) - 1
}

// OrderedCategorical holds one code per row into a ranked category list.
type OrderedCategorical struct {
	Categories []string
	Codes      []int
}

// Value returns the label of row i.
func (c OrderedCategorical) Value(i int) string {
	return c.Categories[c.Codes[i]]
}

// Counts returns the number of rows per category in category order.
func (c OrderedCategorical) Counts() []int {
	out := make([]int, len(c.Categories))
	for _, code := range c.Codes {
		out[code]++
	}
	return out
}

// DerivedEvent carries the temporal columns computed from one row's start time.
type DerivedEvent struct {
	Hour             int
	DayOfWeek        string
	OrderedDayOfWeek Weekday
	Month            int
	YearMonth        string
	StartTimestamp   int64
}

// Derived holds the derived columns of a whole table.
type Derived struct {
	Rows      []DerivedEvent
	YearMonth OrderedCategorical
}

// Len returns the number of rows.
func (d *Derived) Len() int {
	return len(d.Rows)
}
