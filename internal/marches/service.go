package marches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/batiflow/batiflow/internal/roles"
	"github.com/batiflow/batiflow/internal/shared"
)

// ErrValidation wraps client-side payload problems.
var ErrValidation = errors.New("marches: invalid request")

// RepositoryPort defines data access methods for marchés.
type RepositoryPort interface {
	ListAll(ctx context.Context) ([]Marche, error)
	ListByIDs(ctx context.Context, ids []string) ([]Marche, error)
	Get(ctx context.Context, id string) (*Marche, error)
	Create(ctx context.Context, createdBy string, req CreateRequest) (*Marche, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Marche, error)
	Archive(ctx context.Context, id string) error
}

// Visibility resolves which marchés an actor may see.
type Visibility interface {
	AccessibleMarches(ctx context.Context, actorID string) ([]string, error)
}

// RoleGranter assigns marché roles; the creator becomes MOE of the new
// marché.
type RoleGranter interface {
	UpsertAssignment(ctx context.Context, actorID, marcheID, role string) error
}

// Auditor records marché lifecycle changes.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles marché business logic.
type Service struct {
	repo     RepositoryPort
	resolver *roles.Resolver
	dir      Visibility
	granter  RoleGranter
	audit    Auditor
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, resolver *roles.Resolver, dir Visibility, granter RoleGranter, audit Auditor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		dir:      dir,
		granter:  granter,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

// ListForActor returns the marchés the actor may see: everything for an
// admin, otherwise only the directory's accessible set.
func (s *Service) ListForActor(ctx context.Context, actorID string) ([]Marche, error) {
	if s.resolver.IsAdmin(ctx, actorID) {
		return s.repo.ListAll(ctx)
	}
	ids, err := s.dir.AccessibleMarches(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByIDs(ctx, ids)
}

// Get fetches one marché. Visibility is enforced by the route guard.
func (s *Service) Get(ctx context.Context, id string) (*Marche, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a marché and grants the creator the MOE role on it.
func (s *Service) Create(ctx context.Context, createdBy string, req CreateRequest) (*Marche, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	m, err := s.repo.Create(ctx, createdBy, req)
	if err != nil {
		return nil, err
	}
	if err := s.granter.UpsertAssignment(ctx, createdBy, m.ID, string(roles.MarcheMOE)); err != nil {
		s.logger.Error("grant creator role", slog.String("marche", m.ID), slog.Any("error", err))
	}
	s.recordAudit(ctx, createdBy, "marche.create", m.ID, map[string]any{"title": m.Title})
	return m, nil
}

// Update rewrites the mutable fields of a marché.
func (s *Service) Update(ctx context.Context, updatedBy, id string, req UpdateRequest) (*Marche, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	m, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, updatedBy, "marche.update", id, map[string]any{"status": m.Status})
	return m, nil
}

// Archive retires a marché without deleting its history.
func (s *Service) Archive(ctx context.Context, archivedBy, id string) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, archivedBy, "marche.archive", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, marcheID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "marche",
		EntityID: marcheID,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}
