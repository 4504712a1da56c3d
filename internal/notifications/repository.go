package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the notification does not exist or belongs to
// another actor.
var ErrNotFound = errors.New("notifications: not found")

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForActor returns the actor's notifications, newest first.
func (r *Repository) ListForActor(ctx context.Context, actorID string, onlyUnread bool, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, actor_id, kind, title, body, COALESCE(marche_id, ''), read_at, created_at
	          FROM notifications WHERE actor_id = $1`
	if onlyUnread {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("notifications: list: %w", err)
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.ActorID, &n.Kind, &n.Title, &n.Body, &n.MarcheID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications for the actor.
func (r *Repository) UnreadCount(ctx context.Context, actorID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE actor_id = $1 AND read_at IS NULL`, actorID).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notifications: unread count: %w", err)
	}
	return count, nil
}

// MarkRead stamps one notification as read. Scoped to the actor so a
// session can only touch its own rows.
func (r *Repository) MarkRead(ctx context.Context, actorID, id string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND actor_id = $2 AND read_at IS NULL`,
		id, actorID)
	if err != nil {
		return fmt.Errorf("notifications: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead stamps every unread notification of the actor.
func (r *Repository) MarkAllRead(ctx context.Context, actorID string) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE actor_id = $1 AND read_at IS NULL`, actorID)
	if err != nil {
		return 0, fmt.Errorf("notifications: mark all read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
