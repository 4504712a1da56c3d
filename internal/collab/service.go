package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/batiflow/batiflow/internal/directory"
	"github.com/batiflow/batiflow/internal/roles"
	"github.com/batiflow/batiflow/internal/shared"
)

// MinSearchLength is the minimum number of characters before the actor
// search hits the store.
const MinSearchLength = 2

// ErrValidation wraps client-side payload problems.
var ErrValidation = errors.New("collab: invalid request")

// Store is the directory surface collaborator management needs.
type Store interface {
	CollaboratorsForMarche(ctx context.Context, marcheID string) ([]directory.CollaboratorRow, error)
	UpsertAssignment(ctx context.Context, actorID, marcheID, role string) error
	DeleteAssignment(ctx context.Context, actorID, marcheID string) error
	SearchProfiles(ctx context.Context, folded string, limit int) ([]directory.Profile, error)
}

// CacheInvalidator drops role caches after a mutation.
type CacheInvalidator interface {
	InvalidateActor(actorID string)
}

// Auditor records role mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the collaborator workflow: list, assign, revoke,
// and the live actor search feeding the picker.
type Service struct {
	store    Store
	caches   CacheInvalidator
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(store Store, caches CacheInvalidator, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		caches:   caches,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

// ListAssignments returns the collaborators on one marché. On failure
// the error surfaces to the caller; no partial state is produced.
func (s *Service) ListAssignments(ctx context.Context, marcheID string) ([]Collaborator, error) {
	rows, err := s.store.CollaboratorsForMarche(ctx, marcheID)
	if err != nil {
		return nil, err
	}
	out := make([]Collaborator, 0, len(rows))
	for _, row := range rows {
		out = append(out, Collaborator{
			ActorID:   row.Profile.ActorID,
			Email:     row.Profile.Email,
			FirstName: row.Profile.FirstName,
			LastName:  row.Profile.LastName,
			Role:      roles.ParseMarcheRole(row.Role),
			Since:     row.Since,
		})
	}
	return out, nil
}

// AssignRole grants a marché role to an actor. The upsert at the store
// keeps at most one active assignment per (actor, marché): assigning
// twice replaces, never accumulates.
func (s *Service) AssignRole(ctx context.Context, performedBy, marcheID string, req AssignRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	role := roles.ParseMarcheRole(req.Role)
	if role == roles.MarcheNone || role == roles.MarcheUnknown {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, req.Role)
	}
	if err := s.store.UpsertAssignment(ctx, req.ActorID, marcheID, string(role)); err != nil {
		return err
	}
	s.invalidate(req.ActorID)
	s.recordAudit(ctx, performedBy, "role.assign", marcheID, map[string]any{
		"actor_id": req.ActorID,
		"role":     string(role),
	})
	return nil
}

// RemoveRole revokes the actor's role on the marché.
func (s *Service) RemoveRole(ctx context.Context, performedBy, actorID, marcheID string) error {
	if strings.TrimSpace(actorID) == "" {
		return fmt.Errorf("%w: actor id required", ErrValidation)
	}
	if err := s.store.DeleteAssignment(ctx, actorID, marcheID); err != nil {
		return err
	}
	s.invalidate(actorID)
	s.recordAudit(ctx, performedBy, "role.remove", marcheID, map[string]any{
		"actor_id": actorID,
	})
	return nil
}

// SearchActors looks up profiles by partial name or email. Queries
// shorter than MinSearchLength never touch the store. Lookup errors
// clear the result set silently; live typing must not raise.
func (s *Service) SearchActors(ctx context.Context, query string) []ActorHit {
	trimmed := strings.TrimSpace(query)
	if len([]rune(trimmed)) < MinSearchLength {
		return nil
	}
	profiles, err := s.store.SearchProfiles(ctx, FoldQuery(trimmed), 20)
	if err != nil {
		s.logger.Warn("actor search", slog.String("query", trimmed), slog.Any("error", err))
		return nil
	}
	hits := make([]ActorHit, 0, len(profiles))
	for _, p := range profiles {
		hits = append(hits, ActorHit{
			ActorID:   p.ActorID,
			Email:     p.Email,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		})
	}
	return hits
}

// AssignableActors filters search hits down to actors not already
// assigned on the marché: set difference by actor id.
func AssignableActors(hits []ActorHit, assigned []Collaborator) []ActorHit {
	taken := make(map[string]struct{}, len(assigned))
	for _, c := range assigned {
		taken[c.ActorID] = struct{}{}
	}
	out := make([]ActorHit, 0, len(hits))
	for _, h := range hits {
		if _, ok := taken[h.ActorID]; !ok {
			out = append(out, h)
		}
	}
	return out
}

func (s *Service) invalidate(actorID string) {
	if s.caches != nil {
		s.caches.InvalidateActor(actorID)
	}
}

func (s *Service) recordAudit(ctx context.Context, performedBy, action, marcheID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  performedBy,
		Action:   action,
		Entity:   "marche",
		EntityID: marcheID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
