package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed access to the directory: the
// profiles table, the marché role assignments, and the SQL functions
// that stand in for the hosted remote procedures.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ProfileRole reads the raw global role straight from the profile row.
func (r *Repository) ProfileRole(ctx context.Context, actorID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(role, '') FROM profiles WHERE actor_id = $1`, actorID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("directory: profile role: %w", err)
	}
	return role, nil
}

// GlobalRoleFn calls the get_global_role function, the fallback path
// when the direct profile read is not available.
func (r *Repository) GlobalRoleFn(ctx context.Context, actorID string) (string, error) {
	var role string
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(get_global_role($1), '')`, actorID).Scan(&role); err != nil {
		return "", fmt.Errorf("directory: get_global_role: %w", err)
	}
	return role, nil
}

// MarcheRoleFor returns the raw role the actor holds on one marché.
// ErrNotFound when no assignment row exists.
func (r *Repository) MarcheRoleFor(ctx context.Context, actorID, marcheID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM marche_roles WHERE actor_id = $1 AND marche_id = $2`,
		actorID, marcheID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("directory: marche role: %w", err)
	}
	return role, nil
}

// AssignmentsForActor returns every assignment row the actor holds.
func (r *Repository) AssignmentsForActor(ctx context.Context, actorID string) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT actor_id, marche_id, role, created_at FROM marche_roles WHERE actor_id = $1`,
		actorID)
	if err != nil {
		return nil, fmt.Errorf("directory: assignments for actor: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// AssignmentsForMarche returns every assignment row on one marché.
func (r *Repository) AssignmentsForMarche(ctx context.Context, marcheID string) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT actor_id, marche_id, role, created_at FROM marche_roles WHERE marche_id = $1`,
		marcheID)
	if err != nil {
		return nil, fmt.Errorf("directory: assignments for marche: %w", err)
	}
	defer rows.Close()
	return scanAssignments(rows)
}

// AccessibleMarches calls get_accessible_marches, the authoritative
// visibility check. Never served from any local cache.
func (r *Repository) AccessibleMarches(ctx context.Context, actorID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT marche_id FROM get_accessible_marches($1)`, actorID)
	if err != nil {
		return nil, fmt.Errorf("directory: get_accessible_marches: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// IsAdmin evaluates admin status server-side via the is_admin function.
func (r *Repository) IsAdmin(ctx context.Context, actorID string) (bool, error) {
	var admin bool
	if err := r.pool.QueryRow(ctx, `SELECT is_admin($1)`, actorID).Scan(&admin); err != nil {
		return false, fmt.Errorf("directory: is_admin: %w", err)
	}
	return admin, nil
}

// UpsertAssignment grants a role, replacing any previous role the actor
// held on the marché. At most one row per (actor, marché) pair.
func (r *Repository) UpsertAssignment(ctx context.Context, actorID, marcheID, role string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO marche_roles (actor_id, marche_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (actor_id, marche_id) DO UPDATE SET role = EXCLUDED.role`,
		actorID, marcheID, role)
	if err != nil {
		return fmt.Errorf("directory: upsert assignment: %w", err)
	}
	return nil
}

// DeleteAssignment revokes the actor's role on the marché.
func (r *Repository) DeleteAssignment(ctx context.Context, actorID, marcheID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM marche_roles WHERE actor_id = $1 AND marche_id = $2`,
		actorID, marcheID)
	if err != nil {
		return fmt.Errorf("directory: delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CollaboratorRow is an assignment joined with its profile.
type CollaboratorRow struct {
	Profile Profile
	Role    string
	Since   time.Time
}

// CollaboratorsForMarche returns the assignments on one marché joined
// with the directory profiles behind them.
func (r *Repository) CollaboratorsForMarche(ctx context.Context, marcheID string) ([]CollaboratorRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.actor_id, p.email, p.first_name, p.last_name, COALESCE(p.role, ''), p.created_at, p.updated_at,
		        mr.role, mr.created_at
		 FROM marche_roles mr
		 JOIN profiles p ON p.actor_id = mr.actor_id
		 WHERE mr.marche_id = $1`,
		marcheID)
	if err != nil {
		return nil, fmt.Errorf("directory: collaborators for marche: %w", err)
	}
	defer rows.Close()
	var out []CollaboratorRow
	for rows.Next() {
		var c CollaboratorRow
		if err := rows.Scan(
			&c.Profile.ActorID, &c.Profile.Email, &c.Profile.FirstName, &c.Profile.LastName,
			&c.Profile.GlobalRole, &c.Profile.CreatedAt, &c.Profile.UpdatedAt,
			&c.Role, &c.Since); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProfiles matches profiles by partial name or email. The query
// is matched accent-insensitively through the folded columns.
func (r *Repository) SearchProfiles(ctx context.Context, folded string, limit int) ([]Profile, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT actor_id, email, first_name, last_name, COALESCE(role, ''), created_at, updated_at
		 FROM profiles
		 WHERE search_text LIKE '%' || $1 || '%'
		 ORDER BY last_name, first_name
		 LIMIT $2`,
		folded, limit)
	if err != nil {
		return nil, fmt.Errorf("directory: search profiles: %w", err)
	}
	defer rows.Close()
	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ActorID, &p.Email, &p.FirstName, &p.LastName, &p.GlobalRole, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Profile loads one directory profile.
func (r *Repository) Profile(ctx context.Context, actorID string) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx,
		`SELECT actor_id, email, first_name, last_name, COALESCE(role, ''), created_at, updated_at
		 FROM profiles WHERE actor_id = $1`, actorID).
		Scan(&p.ActorID, &p.Email, &p.FirstName, &p.LastName, &p.GlobalRole, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("directory: profile: %w", err)
	}
	return &p, nil
}

func scanAssignments(rows pgx.Rows) ([]Assignment, error) {
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ActorID, &a.MarcheID, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assignments, nil
}
