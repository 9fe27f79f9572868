package appointments

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

const uniqueViolation = "23505"

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for appointments.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending appointment. The partial unique index on
// (employee_id, booking_at) over live statuses turns a double-booking race
// into ErrSlotTaken for the losing writer.
func (r *Repository) Create(ctx context.Context, serviceID, employeeID, clientID uuid.UUID, bookingAt time.Time) (*Appointment, error) {
	appt := &Appointment{
		ID:         uuid.New(),
		ServiceID:  serviceID,
		EmployeeID: employeeID,
		ClientID:   clientID,
		BookingAt:  bookingAt.UTC(),
		Status:     StatusPending,
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO appointments (id, service_id, employee_id, client_id, booking_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, appt.ID, appt.ServiceID, appt.EmployeeID, appt.ClientID, appt.BookingAt, string(appt.Status))

	if err := row.Scan(&appt.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("appointments: insert: %w", err)
	}
	return appt, nil
}

// Get loads one appointment by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, service_id, employee_id, client_id, booking_at, status, created_at
		FROM appointments
		WHERE id = $1
	`, id)

	var appt Appointment
	var status string
	err := row.Scan(&appt.ID, &appt.ServiceID, &appt.EmployeeID, &appt.ClientID, &appt.BookingAt, &status, &appt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	appt.Status = Status(status)
	return &appt, nil
}

// ForEmployeeBetween lists live bookings of an employee inside a UTC window,
// joined with the booked service's duration so availability can run its
// overlap checks.
func (r *Repository) ForEmployeeBetween(ctx context.Context, employeeID uuid.UUID, fromUTC, toUTC time.Time) ([]BookedSlot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.booking_at, s.duration_minutes
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.employee_id = $1
		  AND a.status IN ('pending', 'confirmed')
		  AND a.booking_at >= $2
		  AND a.booking_at < $3
		ORDER BY a.booking_at
	`, employeeID, fromUTC, toUTC)
	if err != nil {
		return nil, fmt.Errorf("appointments: list for employee: %w", err)
	}
	defer rows.Close()

	var booked []BookedSlot
	for rows.Next() {
		var b BookedSlot
		if err := rows.Scan(&b.StartUTC, &b.DurationMinutes); err != nil {
			return nil, fmt.Errorf("appointments: scan booking: %w", err)
		}
		booked = append(booked, b)
	}
	return booked, rows.Err()
}

// UpdateStatusIfPending applies a guarded transition: the write succeeds
// only while the appointment is still pending.
func (r *Repository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, next Status) (bool, error) {
	ct, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = $1
		WHERE id = $2 AND status = 'pending'
	`, string(next), id)
	if err != nil {
		return false, fmt.Errorf("appointments: update status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}
