package authz

import (
	"context"
	"log/slog"
	"slices"

	"github.com/batiflow/batiflow/internal/roles"
)

// Action enumerates the gated operations.
type Action int

const (
	ActionManageRoles Action = iota
	ActionCreateMarche
	ActionViewMarche
)

// Allowed is the pure decision function over locally known roles.
// Precedence, first match wins: ADMIN grants everything; managing
// collaborators requires MOE on the marché; creating a marché requires
// a global role of ADMIN or MOE; everything else is denied. Visibility
// (ActionViewMarche) is never decided locally, see Guard.CanViewMarche.
func Allowed(global roles.GlobalRole, marcheRole roles.MarcheRole, action Action) bool {
	if global == roles.GlobalAdmin {
		return true
	}
	switch action {
	case ActionManageRoles:
		return marcheRole == roles.MarcheMOE
	case ActionCreateMarche:
		return global == roles.GlobalMOE
	default:
		return false
	}
}

// CanManageRoles reports whether the role pair allows collaborator
// management on the marché the marcheRole was resolved for.
func CanManageRoles(global roles.GlobalRole, marcheRole roles.MarcheRole) bool {
	return Allowed(global, marcheRole, ActionManageRoles)
}

// CanCreateMarche reports whether the global role allows creating
// marchés.
func CanCreateMarche(global roles.GlobalRole) bool {
	return Allowed(global, roles.MarcheNone, ActionCreateMarche)
}

// VisibilityChecker is the authoritative accessible-marchés lookup.
type VisibilityChecker interface {
	AccessibleMarches(ctx context.Context, actorID string) ([]string, error)
}

// DecisionRecorder counts guard outcomes, typically Prometheus backed.
type DecisionRecorder interface {
	GuardDecision(action string, allowed bool)
}

// Guard answers capability questions for a session, combining the
// session role cache for affordance checks with authoritative directory
// calls for visibility. A stale cache can at worst surface a button the
// server will reject; it must never leak a marché.
type Guard struct {
	registry *roles.Registry
	resolver *roles.Resolver
	dir      VisibilityChecker
	logger   *slog.Logger
	metrics  DecisionRecorder
}

// NewGuard constructs a Guard. metrics may be nil.
func NewGuard(registry *roles.Registry, resolver *roles.Resolver, dir VisibilityChecker, logger *slog.Logger, metrics DecisionRecorder) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{registry: registry, resolver: resolver, dir: dir, logger: logger, metrics: metrics}
}

func (g *Guard) record(action string, allowed bool) bool {
	if g.metrics != nil {
		g.metrics.GuardDecision(action, allowed)
	}
	return allowed
}

// Cache returns the role cache bound to the session.
func (g *Guard) Cache(sessionID, actorID string) *roles.SessionCache {
	return g.registry.ForSession(sessionID, actorID)
}

// CanManageRoles decides collaborator management on one marché from the
// session cache.
func (g *Guard) CanManageRoles(ctx context.Context, sessionID, actorID, marcheID string) bool {
	cache := g.registry.ForSession(sessionID, actorID)
	cache.EnsureLoaded(ctx)
	return g.record("manage_roles", CanManageRoles(cache.GlobalRole(), cache.MarcheRole(ctx, marcheID)))
}

// CanCreateMarche decides marché creation from the session cache.
func (g *Guard) CanCreateMarche(ctx context.Context, sessionID, actorID string) bool {
	cache := g.registry.ForSession(sessionID, actorID)
	cache.EnsureLoaded(ctx)
	return g.record("create_marche", CanCreateMarche(cache.GlobalRole()))
}

// CanViewMarche is security-sensitive and always asks the directory:
// admin status through is_admin, then the accessible-marchés function.
// Denied on any error.
func (g *Guard) CanViewMarche(ctx context.Context, actorID, marcheID string) bool {
	if g.resolver.IsAdmin(ctx, actorID) {
		return g.record("view_marche", true)
	}
	ids, err := g.dir.AccessibleMarches(ctx, actorID)
	if err != nil {
		g.logger.Warn("accessible marches lookup", slog.String("actor", actorID), slog.Any("error", err))
		return g.record("view_marche", false)
	}
	return g.record("view_marche", slices.Contains(ids, marcheID))
}
