package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"regexp"

	libdb "chargeinsight/backend/libs/db"
	"chargeinsight/backend/services/eda-service/internal/models"
)

// ErrRunNotFound indicates no rows were exported under a run id.
var ErrRunNotFound = errors.New("run not found")

var placeholder = regexp.MustCompile(`\$\d+`)

// EventRepository exports cleaned charging events, one row set per analysis run.
type EventRepository struct {
	db     *sql.DB
	driver string
}

// NewEventRepository returns repository for the given database/sql driver name.
func NewEventRepository(db *sql.DB, driver string) *EventRepository {
	return &EventRepository{db: db, driver: driver}
}

// bind rewrites $N placeholders for drivers that expect '?'.
func (r *EventRepository) bind(query string) string {
	if r.driver == libdb.DriverSQLite {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

// EnsureSchema creates the export table when missing.
func (r *EventRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS charging_events (
			run_id           TEXT NOT NULL,
			row_index        INTEGER NOT NULL,
			start_time       TIMESTAMP NOT NULL,
			meter_start_wh   DOUBLE PRECISION,
			meter_end_wh     DOUBLE PRECISION,
			meter_total_wh   DOUBLE PRECISION,
			total_duration_s DOUBLE PRECISION,
			charger_name     TEXT NOT NULL,
			PRIMARY KEY (run_id, row_index)
		)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// ReplaceRun stores every event of table under runID in one transaction, replacing
// rows a previous attempt with the same id may have left.
func (r *EventRepository) ReplaceRun(ctx context.Context, runID string, table *models.EventTable) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.bind(`DELETE FROM charging_events WHERE run_id = $1`), runID); err != nil {
		return 0, err
	}

	const insert = `
		INSERT INTO charging_events (run_id, row_index, start_time, meter_start_wh, meter_end_wh, meter_total_wh, total_duration_s, charger_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	stmt, err := tx.PrepareContext(ctx, r.bind(insert))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var inserted int64
	for i, ev := range table.Events {
		if _, err := stmt.ExecContext(ctx,
			runID,
			i,
			ev.StartTime.UTC(),
			nullable(ev.MeterStartWh),
			nullable(ev.MeterEndWh),
			nullable(ev.MeterTotalWh),
			nullable(ev.DurationSeconds),
			ev.ChargerName,
		); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// EventsByRun returns the exported events of runID in row order.
func (r *EventRepository) EventsByRun(ctx context.Context, runID string) ([]models.ChargingEvent, error) {
	const query = `
		SELECT start_time, meter_start_wh, meter_end_wh, meter_total_wh, total_duration_s, charger_name
		FROM charging_events
		WHERE run_id = $1
		ORDER BY row_index
	`
	rows, err := r.db.QueryContext(ctx, r.bind(query), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ChargingEvent
	for rows.Next() {
		var (
			ev                          models.ChargingEvent
			start, end, total, duration sql.NullFloat64
		)
		if err := rows.Scan(&ev.StartTime, &start, &end, &total, &duration, &ev.ChargerName); err != nil {
			return nil, err
		}
		ev.MeterStartWh = fromNullable(start)
		ev.MeterEndWh = fromNullable(end)
		ev.MeterTotalWh = fromNullable(total)
		ev.DurationSeconds = fromNullable(duration)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrRunNotFound
	}
	return events, nil
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
