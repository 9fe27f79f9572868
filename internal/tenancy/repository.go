package tenancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the tenant or employee does not exist.
var ErrNotFound = errors.New("tenancy: not found")

// Tenant is one service business. The current model has exactly one
// employee per tenant.
type Tenant struct {
	ID          uuid.UUID
	Name        string
	OwnerChatID int64
	Latitude    *float64
	Longitude   *float64
}

// HasLocation reports whether coordinates can be pushed to clients.
func (t *Tenant) HasLocation() bool {
	return t.Latitude != nil && t.Longitude != nil
}

// Employee is the single bookable person of a tenant.
type Employee struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	DisplayName string
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for tenants and their employees.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("tenancy: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// List returns every tenant ordered by name.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, owner_chat_id, latitude, longitude
		FROM tenants
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("tenancy: list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.OwnerChatID, &t.Latitude, &t.Longitude); err != nil {
			return nil, fmt.Errorf("tenancy: scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// Get loads one tenant by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, owner_chat_id, latitude, longitude
		FROM tenants
		WHERE id = $1
	`, id)

	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.OwnerChatID, &t.Latitude, &t.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: load tenant: %w", err)
	}
	return &t, nil
}

// ByOwnerChat resolves the tenant managed from a chat, used to route the
// owner-side setup flows.
func (r *Repository) ByOwnerChat(ctx context.Context, ownerChatID int64) (*Tenant, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, owner_chat_id, latitude, longitude
		FROM tenants
		WHERE owner_chat_id = $1
	`, ownerChatID)

	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.OwnerChatID, &t.Latitude, &t.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: load tenant by owner: %w", err)
	}
	return &t, nil
}

// EmployeeForTenant returns the tenant's single employee.
func (r *Repository) EmployeeForTenant(ctx context.Context, tenantID uuid.UUID) (*Employee, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, display_name
		FROM employees
		WHERE tenant_id = $1
	`, tenantID)

	var e Employee
	err := row.Scan(&e.ID, &e.TenantID, &e.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: load employee: %w", err)
	}
	return &e, nil
}

// Employee loads one employee by id.
func (r *Repository) Employee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tenant_id, display_name
		FROM employees
		WHERE id = $1
	`, id)

	var e Employee
	err := row.Scan(&e.ID, &e.TenantID, &e.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tenancy: load employee: %w", err)
	}
	return &e, nil
}
