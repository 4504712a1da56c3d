package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/batiflow/batiflow/internal/directory"
)

// fakeDirectory is an in-memory Directory with error injection.
type fakeDirectory struct {
	profiles    map[string]string                  // actorID -> raw global role
	assignments map[string]map[string]string       // actorID -> marcheID -> raw role
	admins      map[string]bool

	profileErr    error
	fnErr         error
	assignErr     error
	marcheRoleErr error
	adminErr      error

	profileCalls int
	fnCalls      int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		profiles:    make(map[string]string),
		assignments: make(map[string]map[string]string),
		admins:      make(map[string]bool),
	}
}

func (f *fakeDirectory) ProfileRole(ctx context.Context, actorID string) (string, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return "", f.profileErr
	}
	role, ok := f.profiles[actorID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return role, nil
}

func (f *fakeDirectory) GlobalRoleFn(ctx context.Context, actorID string) (string, error) {
	f.fnCalls++
	if f.fnErr != nil {
		return "", f.fnErr
	}
	return f.profiles[actorID], nil
}

func (f *fakeDirectory) MarcheRoleFor(ctx context.Context, actorID, marcheID string) (string, error) {
	if f.marcheRoleErr != nil {
		return "", f.marcheRoleErr
	}
	role, ok := f.assignments[actorID][marcheID]
	if !ok {
		return "", directory.ErrNotFound
	}
	return role, nil
}

func (f *fakeDirectory) AssignmentsForActor(ctx context.Context, actorID string) ([]directory.Assignment, error) {
	if f.assignErr != nil {
		return nil, f.assignErr
	}
	var out []directory.Assignment
	for marcheID, role := range f.assignments[actorID] {
		out = append(out, directory.Assignment{ActorID: actorID, MarcheID: marcheID, Role: role})
	}
	return out, nil
}

func (f *fakeDirectory) IsAdmin(ctx context.Context, actorID string) (bool, error) {
	if f.adminErr != nil {
		return false, f.adminErr
	}
	return f.admins[actorID], nil
}

func (f *fakeDirectory) grant(actorID, marcheID, role string) {
	if f.assignments[actorID] == nil {
		f.assignments[actorID] = make(map[string]string)
	}
	f.assignments[actorID][marcheID] = role
}

func TestGlobalRoleDirectRead(t *testing.T) {
	dir := newFakeDirectory()
	dir.profiles["u1"] = "moe"
	r := NewResolver(dir, nil, nil)

	assert.Equal(t, GlobalMOE, r.GlobalRole(context.Background(), "u1"))
	assert.Equal(t, 1, dir.profileCalls)
	assert.Equal(t, 0, dir.fnCalls, "no fallback when the direct read works")
}

func TestGlobalRoleFallsBackToFunction(t *testing.T) {
	dir := newFakeDirectory()
	dir.profiles["u1"] = "ADMIN"
	dir.profileErr = errors.New("connection reset")
	r := NewResolver(dir, nil, nil)

	assert.Equal(t, GlobalAdmin, r.GlobalRole(context.Background(), "u1"))
	assert.Equal(t, 1, dir.fnCalls)
}

func TestGlobalRoleNeverRaises(t *testing.T) {
	dir := newFakeDirectory()
	dir.profileErr = errors.New("backend down")
	dir.fnErr = errors.New("backend still down")
	r := NewResolver(dir, nil, nil)

	// Both lookup strategies failing degrades to STANDARD.
	assert.Equal(t, GlobalStandard, r.GlobalRole(context.Background(), "u1"))
}

func TestGlobalRoleMissingProfileDefaults(t *testing.T) {
	dir := newFakeDirectory()
	r := NewResolver(dir, nil, nil)

	// Unknown actor: direct read says not found, the function returns
	// empty, which normalizes to STANDARD.
	assert.Equal(t, GlobalStandard, r.GlobalRole(context.Background(), "nobody"))
}

func TestMarcheRolesSkipsMalformedRows(t *testing.T) {
	dir := newFakeDirectory()
	dir.grant("u1", "c1", "MOE")
	dir.grant("u1", "c2", "")
	dir.grant("u1", "", "MANDATAIRE")
	r := NewResolver(dir, nil, nil)

	got := r.MarcheRoles(context.Background(), "u1")
	assert.Equal(t, map[string]MarcheRole{"c1": MarcheMOE}, got)
}

func TestMarcheRolesEmptyOnError(t *testing.T) {
	dir := newFakeDirectory()
	dir.grant("u1", "c1", "MOE")
	dir.assignErr = errors.New("boom")
	r := NewResolver(dir, nil, nil)

	got := r.MarcheRoles(context.Background(), "u1")
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMarcheRoleSentinelAmbiguity(t *testing.T) {
	dir := newFakeDirectory()
	r := NewResolver(dir, nil, nil)
	ctx := context.Background()

	// No assignment row.
	assert.Equal(t, MarcheNone, r.MarcheRole(ctx, "u1", "c1"))

	// Lookup failure yields the exact same sentinel.
	dir.marcheRoleErr = errors.New("timeout")
	assert.Equal(t, MarcheNone, r.MarcheRole(ctx, "u1", "c1"))
}

func TestMarcheRoleFound(t *testing.T) {
	dir := newFakeDirectory()
	dir.grant("u1", "c2", "MANDATAIRE")
	r := NewResolver(dir, nil, nil)

	assert.Equal(t, MarcheMandataire, r.MarcheRole(context.Background(), "u1", "c2"))
}

func TestIsAdminDefaultsFalse(t *testing.T) {
	dir := newFakeDirectory()
	dir.admins["root"] = true
	r := NewResolver(dir, nil, nil)
	ctx := context.Background()

	assert.True(t, r.IsAdmin(ctx, "root"))
	assert.False(t, r.IsAdmin(ctx, "u1"))

	dir.adminErr = errors.New("boom")
	assert.False(t, r.IsAdmin(ctx, "root"))
}

func TestAssignThenRemoveRoundTrip(t *testing.T) {
	dir := newFakeDirectory()
	r := NewResolver(dir, nil, nil)
	ctx := context.Background()

	// Admin assigns MANDATAIRE to U1 on C2.
	dir.grant("U1", "C2", "MANDATAIRE")
	assert.Equal(t, MarcheMandataire, r.MarcheRole(ctx, "U1", "C2"))

	// Removing it returns to the no-role sentinel.
	delete(dir.assignments["U1"], "C2")
	assert.Equal(t, MarcheNone, r.MarcheRole(ctx, "U1", "C2"))
}
