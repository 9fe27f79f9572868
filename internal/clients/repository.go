package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the client does not exist.
var ErrNotFound = errors.New("clients: not found")

// Client is an end user booking through a chat. Language and timezone are
// independent per-client attributes used for notification rendering.
type Client struct {
	ID       uuid.UUID
	ChatID   int64
	Language string
	Timezone string
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for chat clients.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("clients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(db querier) *Repository {
	return &Repository{db: db}
}

// Ensure upserts a client on first contact and returns the stored row.
// Language and timezone are only written on insert; later changes go
// through UpdateLanguage/UpdateTimezone.
func (r *Repository) Ensure(ctx context.Context, chatID int64, language, timezone string) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO clients (id, chat_id, language, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (chat_id) DO UPDATE SET chat_id = EXCLUDED.chat_id
		RETURNING id, chat_id, language, timezone
	`, uuid.New(), chatID, language, timezone)

	var c Client
	if err := row.Scan(&c.ID, &c.ChatID, &c.Language, &c.Timezone); err != nil {
		return nil, fmt.Errorf("clients: ensure client: %w", err)
	}
	return &c, nil
}

// Get loads one client by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, chat_id, language, timezone
		FROM clients
		WHERE id = $1
	`, id)

	var c Client
	err := row.Scan(&c.ID, &c.ChatID, &c.Language, &c.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clients: load client: %w", err)
	}
	return &c, nil
}

// ByChat loads one client by chat id.
func (r *Repository) ByChat(ctx context.Context, chatID int64) (*Client, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, chat_id, language, timezone
		FROM clients
		WHERE chat_id = $1
	`, chatID)

	var c Client
	err := row.Scan(&c.ID, &c.ChatID, &c.Language, &c.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("clients: load client by chat: %w", err)
	}
	return &c, nil
}

// UpdateTimezone stores a client's preferred timezone.
func (r *Repository) UpdateTimezone(ctx context.Context, id uuid.UUID, timezone string) error {
	_, err := r.db.Exec(ctx, `UPDATE clients SET timezone = $1 WHERE id = $2`, timezone, id)
	if err != nil {
		return fmt.Errorf("clients: update timezone: %w", err)
	}
	return nil
}

// UpdateLanguage stores a client's preferred language.
func (r *Repository) UpdateLanguage(ctx context.Context, id uuid.UUID, language string) error {
	_, err := r.db.Exec(ctx, `UPDATE clients SET language = $1 WHERE id = $2`, language, id)
	if err != nil {
		return fmt.Errorf("clients: update language: %w", err)
	}
	return nil
}
