package catalog

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

// ErrNotFound indicates the service does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Service is a bookable offering of an employee. Duration is immutable once
// slots are being offered against it.
type Service struct {
	ID              uuid.UUID
	EmployeeID      uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Currency        string
}

// Duration returns the service span as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for the service catalog.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// ForEmployee lists the employee's services ordered by name.
func (r *Repository) ForEmployee(ctx context.Context, employeeID uuid.UUID) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, employee_id, name, duration_minutes, price_cents, currency
		FROM services
		WHERE employee_id = $1
		ORDER BY name
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("catalog: list services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.EmployeeID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.Currency); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// Get loads one service by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, employee_id, name, duration_minutes, price_cents, currency
		FROM services
		WHERE id = $1
	`, id)

	var s Service
	err := row.Scan(&s.ID, &s.EmployeeID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load service: %w", err)
	}
	return &s, nil
}
