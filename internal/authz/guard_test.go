package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/batiflow/batiflow/internal/directory"
	"github.com/batiflow/batiflow/internal/roles"
)

// stubDirectory satisfies both roles.Directory and VisibilityChecker.
type stubDirectory struct {
	profiles    map[string]string
	assignments map[string]map[string]string
	admins      map[string]bool
	accessible  map[string][]string

	accessibleErr error
	adminErr      error
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		profiles:    make(map[string]string),
		assignments: make(map[string]map[string]string),
		admins:      make(map[string]bool),
		accessible:  make(map[string][]string),
	}
}

func (s *stubDirectory) ProfileRole(ctx context.Context, actorID string) (string, error) {
	role, ok := s.profiles[actorID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return role, nil
}

func (s *stubDirectory) GlobalRoleFn(ctx context.Context, actorID string) (string, error) {
	return s.profiles[actorID], nil
}

func (s *stubDirectory) MarcheRoleFor(ctx context.Context, actorID, marcheID string) (string, error) {
	role, ok := s.assignments[actorID][marcheID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return role, nil
}

func (s *stubDirectory) AssignmentsForActor(ctx context.Context, actorID string) ([]directory.Assignment, error) {
	var out []directory.Assignment
	for marcheID, role := range s.assignments[actorID] {
		out = append(out, directory.Assignment{ActorID: actorID, MarcheID: marcheID, Role: role})
	}
	return out, nil
}

func (s *stubDirectory) IsAdmin(ctx context.Context, actorID string) (bool, error) {
	if s.adminErr != nil {
		return false, s.adminErr
	}
	return s.admins[actorID], nil
}

func (s *stubDirectory) AccessibleMarches(ctx context.Context, actorID string) ([]string, error) {
	if s.accessibleErr != nil {
		return nil, s.accessibleErr
	}
	return s.accessible[actorID], nil
}

func (s *stubDirectory) grant(actorID, marcheID, role string) {
	if s.assignments[actorID] == nil {
		s.assignments[actorID] = make(map[string]string)
	}
	s.assignments[actorID][marcheID] = role
}

func newGuard(dir *stubDirectory) *Guard {
	resolver := roles.NewResolver(dir, nil, nil)
	registry := roles.NewRegistry(resolver)
	return NewGuard(registry, resolver, dir, nil, nil)
}

func TestAllowedPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		global roles.GlobalRole
		marche roles.MarcheRole
		action Action
		want   bool
	}{
		{"admin manages anywhere", roles.GlobalAdmin, roles.MarcheNone, ActionManageRoles, true},
		{"admin creates", roles.GlobalAdmin, roles.MarcheNone, ActionCreateMarche, true},
		{"admin views", roles.GlobalAdmin, roles.MarcheNone, ActionViewMarche, true},
		{"moe on marche manages it", roles.GlobalStandard, roles.MarcheMOE, ActionManageRoles, true},
		{"mandataire never manages", roles.GlobalStandard, roles.MarcheMandataire, ActionManageRoles, false},
		{"global moe without marche role cannot manage", roles.GlobalMOE, roles.MarcheNone, ActionManageRoles, false},
		{"global moe creates", roles.GlobalMOE, roles.MarcheNone, ActionCreateMarche, true},
		{"mandataire cannot create", roles.GlobalMandataire, roles.MarcheNone, ActionCreateMarche, false},
		{"standard cannot create", roles.GlobalStandard, roles.MarcheNone, ActionCreateMarche, false},
		{"unknown role denied everywhere", roles.GlobalUnknown, roles.MarcheUnknown, ActionManageRoles, false},
		{"view is never granted locally", roles.GlobalStandard, roles.MarcheMOE, ActionViewMarche, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.global, tc.marche, tc.action))
		})
	}
}

func TestGuardCanManageRoles(t *testing.T) {
	dir := newStubDirectory()
	dir.profiles["moe"] = "STANDARD"
	dir.grant("moe", "c1", "MOE")
	g := newGuard(dir)
	ctx := context.Background()

	assert.True(t, g.CanManageRoles(ctx, "s1", "moe", "c1"))
	assert.False(t, g.CanManageRoles(ctx, "s1", "moe", "c2"), "role is scoped to the marché it was granted on")
}

func TestGuardCanCreateMarche(t *testing.T) {
	dir := newStubDirectory()
	dir.profiles["moe"] = "MOE"
	dir.profiles["std"] = "STANDARD"
	g := newGuard(dir)
	ctx := context.Background()

	assert.True(t, g.CanCreateMarche(ctx, "s1", "moe"))
	assert.False(t, g.CanCreateMarche(ctx, "s2", "std"))
}

func TestGuardCanViewMarcheAuthoritative(t *testing.T) {
	dir := newStubDirectory()
	dir.accessible["u1"] = []string{"c1", "c3"}
	g := newGuard(dir)
	ctx := context.Background()

	assert.True(t, g.CanViewMarche(ctx, "u1", "c1"))
	assert.False(t, g.CanViewMarche(ctx, "u1", "c2"))
}

func TestGuardCanViewMarcheAdminBypass(t *testing.T) {
	dir := newStubDirectory()
	dir.admins["root"] = true
	g := newGuard(dir)

	// No accessible rows needed, is_admin short-circuits.
	assert.True(t, g.CanViewMarche(context.Background(), "root", "anything"))
}

func TestGuardCanViewMarcheDeniesOnError(t *testing.T) {
	dir := newStubDirectory()
	dir.accessible["u1"] = []string{"c1"}
	dir.accessibleErr = errors.New("timeout")
	g := newGuard(dir)

	assert.False(t, g.CanViewMarche(context.Background(), "u1", "c1"))
}

// A standard user is promoted to MOE on one marché mid-session: the
// cached decision stays stale until the cache is invalidated, visibility
// follows the directory immediately.
func TestGuardPromotionScenario(t *testing.T) {
	dir := newStubDirectory()
	dir.profiles["u1"] = "STANDARD"
	g := newGuard(dir)
	ctx := context.Background()

	assert.False(t, g.CanManageRoles(ctx, "s1", "u1", "c1"))

	dir.grant("u1", "c1", "MOE")
	dir.accessible["u1"] = []string{"c1"}

	// The no-role sentinel was cached; the affordance is still denied.
	assert.False(t, g.CanManageRoles(ctx, "s1", "u1", "c1"))
	// Visibility never consults the cache.
	assert.True(t, g.CanViewMarche(ctx, "u1", "c1"))

	g.Cache("s1", "u1").Invalidate()
	assert.True(t, g.CanManageRoles(ctx, "s1", "u1", "c1"))
}
