package marches

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the marché does not exist.
var ErrNotFound = errors.New("marches: not found")

const marcheColumns = `id, title, status, client, start_date, end_date, budget_cents, created_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListAll returns every marché, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Marche, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+marcheColumns+` FROM marches ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("marches: list: %w", err)
	}
	defer rows.Close()
	return scanMarches(rows)
}

// ListByIDs returns the marchés whose ids appear in the slice.
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]Marche, error) {
	if len(ids) == 0 {
		return []Marche{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+marcheColumns+` FROM marches WHERE id = ANY($1) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("marches: list by ids: %w", err)
	}
	defer rows.Close()
	return scanMarches(rows)
}

// Get fetches one marché.
func (r *Repository) Get(ctx context.Context, id string) (*Marche, error) {
	var m Marche
	err := r.pool.QueryRow(ctx,
		`SELECT `+marcheColumns+` FROM marches WHERE id = $1`, id).
		Scan(&m.ID, &m.Title, &m.Status, &m.Client, &m.StartDate, &m.EndDate,
			&m.BudgetCents, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("marches: get: %w", err)
	}
	return &m, nil
}

// Create inserts a marché in preparation status.
func (r *Repository) Create(ctx context.Context, createdBy string, req CreateRequest) (*Marche, error) {
	id := uuid.NewString()
	var m Marche
	err := r.pool.QueryRow(ctx,
		`INSERT INTO marches (id, title, status, client, start_date, end_date, budget_cents, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+marcheColumns,
		id, req.Title, StatusPreparation, req.Client, req.StartDate, req.EndDate, req.BudgetCents, createdBy).
		Scan(&m.ID, &m.Title, &m.Status, &m.Client, &m.StartDate, &m.EndDate,
			&m.BudgetCents, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("marches: create: %w", err)
	}
	return &m, nil
}

// Update rewrites the mutable fields of a marché.
func (r *Repository) Update(ctx context.Context, id string, req UpdateRequest) (*Marche, error) {
	var m Marche
	err := r.pool.QueryRow(ctx,
		`UPDATE marches
		 SET title = $2, status = $3, client = $4, start_date = $5, end_date = $6,
		     budget_cents = $7, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+marcheColumns,
		id, req.Title, req.Status, req.Client, req.StartDate, req.EndDate, req.BudgetCents).
		Scan(&m.ID, &m.Title, &m.Status, &m.Client, &m.StartDate, &m.EndDate,
			&m.BudgetCents, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("marches: update: %w", err)
	}
	return &m, nil
}

// Archive moves a marché to the archived status.
func (r *Repository) Archive(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE marches SET status = $2, updated_at = NOW() WHERE id = $1`, id, StatusArchive)
	if err != nil {
		return fmt.Errorf("marches: archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMarches(rows pgx.Rows) ([]Marche, error) {
	var out []Marche
	for rows.Next() {
		var m Marche
		if err := rows.Scan(&m.ID, &m.Title, &m.Status, &m.Client, &m.StartDate, &m.EndDate,
			&m.BudgetCents, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
