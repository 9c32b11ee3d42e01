package derive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargeinsight/backend/services/eda-service/internal/models"
)

func table(starts ...time.Time) *models.EventTable {
	t := &models.EventTable{Header: models.RequiredColumns}
	for _, s := range starts {
		t.Events = append(t.Events, models.ChargingEvent{StartTime: s, ChargerName: "c"})
		t.Cells = append(t.Cells, make([]string, len(models.RequiredColumns)))
	}
	return t
}

func TestDeriveExampleRow(t *testing.T) {
	start := time.Date(2023, 3, 1, 14, 30, 0, 0, time.UTC)

	derived, err := Derive(table(start))
	require.NoError(t, err)
	require.Equal(t, 1, derived.Len())

	row := derived.Rows[0]
	assert.Equal(t, 14, row.Hour)
	assert.Equal(t, 2, MondayIndex(start))
	assert.Equal(t, 3, SundayIndex(MondayIndex(start)))
	assert.Equal(t, "Wed", row.DayOfWeek)
	assert.Equal(t, models.Wednesday, row.OrderedDayOfWeek)
	assert.Equal(t, 3, row.Month)
	assert.Equal(t, "2023-03", row.YearMonth)
	assert.Equal(t, int64(1677681000), row.StartTimestamp)
}

func TestWeekdayMapping(t *testing.T) {
	monday := time.Date(2023, 3, 6, 8, 0, 0, 0, time.UTC)
	for offset := 0; offset < 7; offset++ {
		day := monday.AddDate(0, 0, offset)
		raw := MondayIndex(day)
		assert.Equal(t, offset, raw)
		assert.Equal(t, (raw+1)%7, int(WeekdayOf(day)))
		assert.True(t, WeekdayOf(day).Valid())
	}
	assert.Equal(t, "Mon", WeekdayOf(monday).String())
	assert.Equal(t, "Sun", WeekdayOf(monday.AddDate(0, 0, 6)).String())
}

func TestPeriodOrderIsChronological(t *testing.T) {
	starts := []time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 9, 30, 23, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 10, 12, 0, 0, 0, 0, time.UTC),
	}

	cat := PeriodOrder(starts)
	assert.Equal(t, []string{"2023-09", "2023-10", "2024-01"}, cat.Categories)
	assert.Equal(t, []int{2, 1, 0, 2, 1}, cat.Codes)
	assert.Equal(t, []int{1, 2, 2}, cat.Counts())

	for i := 1; i < len(cat.Categories); i++ {
		prev, err := models.ParsePeriod(cat.Categories[i-1])
		require.NoError(t, err)
		next, err := models.ParsePeriod(cat.Categories[i])
		require.NoError(t, err)
		assert.True(t, prev.Before(next))
	}
}

func TestUnixSecondsTruncates(t *testing.T) {
	ts := time.Date(1970, 1, 1, 0, 0, 1, 999_000_000, time.UTC)
	assert.Equal(t, int64(1), UnixSeconds(ts))
}

func TestDeriveKeepsRowCount(t *testing.T) {
	base := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	in := table(base, base.Add(time.Hour), base.AddDate(0, 1, 0))

	derived, err := Derive(in)
	require.NoError(t, err)
	assert.Equal(t, in.Len(), derived.Len())
	assert.Len(t, derived.YearMonth.Codes, in.Len())
}

func TestDeriveRejectsUnparsedStart(t *testing.T) {
	_, err := Derive(table(time.Time{}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStartTimeUnset))
}
