// Package derive computes the temporal columns of cleaned charging events.
package derive

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"chargeinsight/backend/services/eda-service/internal/models"
)

// ErrStartTimeUnset signals a row whose start time was never parsed.
var ErrStartTimeUnset = errors.New("derive: start time not parsed")

// Derive computes Hour, Day of Week, Month, Year-Month and Start Timestamp for every row.
func Derive(table *models.EventTable) (*models.Derived, error) {
	out := &models.Derived{Rows: make([]models.DerivedEvent, table.Len())}
	starts := make([]time.Time, table.Len())

	for i, ev := range table.Events {
		if ev.StartTime.IsZero() {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrStartTimeUnset)
		}
		starts[i] = ev.StartTime
		day := WeekdayOf(ev.StartTime)
		out.Rows[i] = models.DerivedEvent{
			Hour:             Hour(ev.StartTime),
			DayOfWeek:        day.String(),
			OrderedDayOfWeek: day,
			Month:            Month(ev.StartTime),
			YearMonth:        YearMonth(ev.StartTime),
			StartTimestamp:   UnixSeconds(ev.StartTime),
		}
	}

	out.YearMonth = PeriodOrder(starts)
	return out, nil
}

// Hour returns the hour of day, 0..23.
func Hour(t time.Time) int {
	return t.Hour()
}

// MondayIndex returns the day of week with Monday=0 and Sunday=6.
func MondayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// SundayIndex shifts a Monday=0 index to the Sunday=0 convention.
func SundayIndex(monday int) int {
	return (monday + 1) % 7
}

// WeekdayOf returns the labelled day of week of t.
func WeekdayOf(t time.Time) models.Weekday {
	return models.Weekday(SundayIndex(MondayIndex(t)))
}

// Month returns the month number, 1..12.
func Month(t time.Time) int {
	return int(t.Month())
}

// YearMonth formats t as YYYY-MM.
func YearMonth(t time.Time) string {
	return models.PeriodOf(t).String()
}

// UnixSeconds returns whole seconds since the Unix epoch, truncating sub-second parts.
func UnixSeconds(t time.Time) int64 {
	return t.Unix()
}

// PeriodOrder builds the Year-Month categorical: categories are the distinct months
// present, sorted chronologically, and codes index into them.
func PeriodOrder(starts []time.Time) models.OrderedCategorical {
	seen := make(map[models.Period]struct{})
	periods := make([]models.Period, 0)
	for _, t := range starts {
		p := models.PeriodOf(t)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	rank := make(map[models.Period]int, len(periods))
	categories := make([]string, len(periods))
	for i, p := range periods {
		rank[p] = i
		categories[i] = p.String()
	}

	codes := make([]int, len(starts))
	for i, t := range starts {
		codes[i] = rank[models.PeriodOf(t)]
	}
	return models.OrderedCategorical{Categories: categories, Codes: codes}
}
