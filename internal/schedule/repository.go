package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for work schedules and breaks.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// WorkIntervalForDay returns the employee's work interval for one weekday,
// or ErrNotFound when the employee does not work that day.
func (r *Repository) WorkIntervalForDay(ctx context.Context, employeeID uuid.UUID, weekday time.Weekday) (*WorkInterval, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, employee_id, weekday, start_minute, end_minute, timezone
		FROM work_intervals
		WHERE employee_id = $1 AND weekday = $2
	`, employeeID, int(weekday))

	var w WorkInterval
	var day int
	err := row.Scan(&w.ID, &w.EmployeeID, &day, &w.StartMinute, &w.EndMinute, &w.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load work interval: %w", err)
	}
	w.Weekday = time.Weekday(day)
	return &w, nil
}

// Weekly returns the full week of work intervals for an employee.
func (r *Repository) Weekly(ctx context.Context, employeeID uuid.UUID) (WeeklySchedule, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, weekday, start_minute, end_minute, timezone
		FROM work_intervals
		WHERE employee_id = $1
		ORDER BY weekday
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("schedule: load weekly schedule: %w", err)
	}
	defer rows.Close()

	weekly := make(WeeklySchedule)
	for rows.Next() {
		var w WorkInterval
		var day int
		if err := rows.Scan(&w.ID, &w.EmployeeID, &day, &w.StartMinute, &w.EndMinute, &w.Timezone); err != nil {
			return nil, fmt.Errorf("schedule: scan work interval: %w", err)
		}
		w.Weekday = time.Weekday(day)
		weekly[w.Weekday] = &w
	}
	return weekly, rows.Err()
}

// UpsertWorkInterval writes the work interval for its weekday, replacing any
// existing one. Re-setting working hours is naturally idempotent.
func (r *Repository) UpsertWorkInterval(ctx context.Context, w *WorkInterval) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO work_intervals (id, employee_id, weekday, start_minute, end_minute, timezone)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, weekday) DO UPDATE SET
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			timezone = EXCLUDED.timezone
	`, w.ID, w.EmployeeID, int(w.Weekday), w.StartMinute, w.EndMinute, w.Timezone)
	if err != nil {
		return fmt.Errorf("schedule: upsert work interval: %w", err)
	}
	return nil
}

// BreaksFor lists the breaks of a work interval ordered by start.
func (r *Repository) BreaksFor(ctx context.Context, workIntervalID uuid.UUID) ([]BreakInterval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, work_interval_id, start_minute, end_minute
		FROM break_intervals
		WHERE work_interval_id = $1
		ORDER BY start_minute
	`, workIntervalID)
	if err != nil {
		return nil, fmt.Errorf("schedule: load breaks: %w", err)
	}
	defer rows.Close()

	var breaks []BreakInterval
	for rows.Next() {
		var b BreakInterval
		if err := rows.Scan(&b.ID, &b.WorkIntervalID, &b.StartMinute, &b.EndMinute); err != nil {
			return nil, fmt.Errorf("schedule: scan break: %w", err)
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

// AddBreak persists a validated break interval.
func (r *Repository) AddBreak(ctx context.Context, b *BreakInterval) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO break_intervals (id, work_interval_id, start_minute, end_minute)
		VALUES ($1, $2, $3, $4)
	`, b.ID, b.WorkIntervalID, b.StartMinute, b.EndMinute)
	if err != nil {
		return fmt.Errorf("schedule: insert break: %w", err)
	}
	return nil
}

// RemoveBreak deletes a break by id, reporting whether a row was removed.
func (r *Repository) RemoveBreak(ctx context.Context, breakID uuid.UUID) (bool, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM break_intervals WHERE id = $1`, breakID)
	if err != nil {
		return false, fmt.Errorf("schedule: delete break: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
