package roles

import (
	"context"
	"errors"
	"log/slog"

	"github.com/batiflow/batiflow/internal/directory"
)

// Directory abstracts the role reads the resolver performs against the
// directory store.
type Directory interface {
	ProfileRole(ctx context.Context, actorID string) (string, error)
	GlobalRoleFn(ctx context.Context, actorID string) (string, error)
	MarcheRoleFor(ctx context.Context, actorID, marcheID string) (string, error)
	AssignmentsForActor(ctx context.Context, actorID string) ([]directory.Assignment, error)
	IsAdmin(ctx context.Context, actorID string) (bool, error)
}

// FailureRecorder counts degraded lookups, typically Prometheus backed.
type FailureRecorder interface {
	RoleLookupFailure()
}

// Resolver translates actor ids into role values. Every exported method
// is total: lookup failures collapse to the least-privileged default and
// are logged, never propagated. Rendering must never block on a role
// fetch error.
type Resolver struct {
	dir     Directory
	logger  *slog.Logger
	metrics FailureRecorder
}

// NewResolver constructs a Resolver. metrics may be nil.
func NewResolver(dir Directory, logger *slog.Logger, metrics FailureRecorder) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{dir: dir, logger: logger, metrics: metrics}
}

func (r *Resolver) degraded() {
	if r.metrics != nil {
		r.metrics.RoleLookupFailure()
	}
}

// lookupGlobalRole is the fallible form: direct profile read first, the
// get_global_role function as fallback when the read errors.
func (r *Resolver) lookupGlobalRole(ctx context.Context, actorID string) (GlobalRole, error) {
	raw, err := r.dir.ProfileRole(ctx, actorID)
	if err != nil {
		raw, err = r.dir.GlobalRoleFn(ctx, actorID)
		if err != nil {
			return GlobalStandard, err
		}
	}
	return ParseGlobalRole(raw), nil
}

// GlobalRole resolves the actor's global role, defaulting to STANDARD
// on any lookup failure.
func (r *Resolver) GlobalRole(ctx context.Context, actorID string) GlobalRole {
	role, err := r.lookupGlobalRole(ctx, actorID)
	if err != nil {
		r.logger.Warn("resolve global role", slog.String("actor", actorID), slog.Any("error", err))
		r.degraded()
		return GlobalStandard
	}
	if role == GlobalUnknown {
		r.logger.Warn("unrecognized global role value", slog.String("actor", actorID))
	}
	return role
}

// MarcheRoles returns every marché role the actor holds, keyed by marché
// id. Rows missing either id or role are skipped. Empty map on failure.
func (r *Resolver) MarcheRoles(ctx context.Context, actorID string) map[string]MarcheRole {
	out := make(map[string]MarcheRole)
	assignments, err := r.dir.AssignmentsForActor(ctx, actorID)
	if err != nil {
		r.logger.Warn("resolve marche roles", slog.String("actor", actorID), slog.Any("error", err))
		r.degraded()
		return out
	}
	for _, a := range assignments {
		if a.MarcheID == "" {
			continue
		}
		role := ParseMarcheRole(a.Role)
		if role == MarcheNone {
			continue
		}
		out[a.MarcheID] = role
	}
	return out
}

// MarcheRole resolves the actor's role on one marché. Returns MarcheNone
// both when no assignment exists and when the lookup fails; callers
// cannot distinguish the two.
func (r *Resolver) MarcheRole(ctx context.Context, actorID, marcheID string) MarcheRole {
	raw, err := r.dir.MarcheRoleFor(ctx, actorID, marcheID)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			r.logger.Warn("resolve marche role",
				slog.String("actor", actorID),
				slog.String("marche", marcheID),
				slog.Any("error", err))
			r.degraded()
		}
		return MarcheNone
	}
	return ParseMarcheRole(raw)
}

// IsAdmin asks the directory to evaluate admin status server-side.
// False on any error.
func (r *Resolver) IsAdmin(ctx context.Context, actorID string) bool {
	admin, err := r.dir.IsAdmin(ctx, actorID)
	if err != nil {
		r.logger.Warn("resolve admin status", slog.String("actor", actorID), slog.Any("error", err))
		r.degraded()
		return false
	}
	return admin
}
