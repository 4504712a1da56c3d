package collab

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batiflow/batiflow/internal/directory"
	"github.com/batiflow/batiflow/internal/roles"
	"github.com/batiflow/batiflow/internal/shared"
)

const (
	actorAlice = "8e2cbb6e-9f2e-4f63-9a6b-1b1f0c9a2d01"
	actorBruno = "4f0b58a1-23de-4d8a-8d4a-9a6de18c2b02"
)

type mockStore struct {
	profiles    map[string]directory.Profile
	assignments map[string]string // actorID|marcheID -> role

	searchErr error
	searchLog []string
}

func newMockStore() *mockStore {
	return &mockStore{
		profiles:    make(map[string]directory.Profile),
		assignments: make(map[string]string),
	}
}

func key(actorID, marcheID string) string { return actorID + "|" + marcheID }

func (m *mockStore) CollaboratorsForMarche(ctx context.Context, marcheID string) ([]directory.CollaboratorRow, error) {
	var out []directory.CollaboratorRow
	for k, role := range m.assignments {
		actorID, mid, _ := strings.Cut(k, "|")
		if mid != marcheID {
			continue
		}
		out = append(out, directory.CollaboratorRow{
			Profile: m.profiles[actorID],
			Role:    role,
			Since:   time.Now(),
		})
	}
	return out, nil
}

func (m *mockStore) UpsertAssignment(ctx context.Context, actorID, marcheID, role string) error {
	m.assignments[key(actorID, marcheID)] = role
	return nil
}

func (m *mockStore) DeleteAssignment(ctx context.Context, actorID, marcheID string) error {
	k := key(actorID, marcheID)
	if _, ok := m.assignments[k]; !ok {
		return directory.ErrNotFound
	}
	delete(m.assignments, k)
	return nil
}

func (m *mockStore) SearchProfiles(ctx context.Context, folded string, limit int) ([]directory.Profile, error) {
	m.searchLog = append(m.searchLog, folded)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	var out []directory.Profile
	for _, p := range m.profiles {
		text := FoldQuery(p.FirstName + " " + p.LastName + " " + p.Email)
		if strings.Contains(text, folded) {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockInvalidator struct{ invalidated []string }

func (m *mockInvalidator) InvalidateActor(actorID string) {
	m.invalidated = append(m.invalidated, actorID)
}

type mockAuditor struct{ logs []shared.AuditLog }

func (m *mockAuditor) Record(ctx context.Context, log shared.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func newTestService(store *mockStore) (*Service, *mockInvalidator, *mockAuditor) {
	inv := &mockInvalidator{}
	aud := &mockAuditor{}
	return NewService(store, inv, aud, nil), inv, aud
}

func TestAssignRoleUpserts(t *testing.T) {
	store := newMockStore()
	svc, inv, aud := newTestService(store)
	ctx := context.Background()

	err := svc.AssignRole(ctx, "admin", "c1", AssignRequest{ActorID: actorAlice, Role: "MOE"})
	require.NoError(t, err)
	assert.Equal(t, "MOE", store.assignments[key(actorAlice, "c1")])

	// Assigning again replaces the role, it never accumulates.
	err = svc.AssignRole(ctx, "admin", "c1", AssignRequest{ActorID: actorAlice, Role: "MANDATAIRE"})
	require.NoError(t, err)
	assert.Equal(t, "MANDATAIRE", store.assignments[key(actorAlice, "c1")])
	assert.Len(t, store.assignments, 1)

	assert.Equal(t, []string{actorAlice, actorAlice}, inv.invalidated)
	require.Len(t, aud.logs, 2)
	assert.Equal(t, "role.assign", aud.logs[0].Action)
	assert.Equal(t, "c1", aud.logs[0].EntityID)
}

func TestAssignRoleValidation(t *testing.T) {
	store := newMockStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	cases := []struct {
		name string
		req  AssignRequest
	}{
		{"missing actor", AssignRequest{Role: "MOE"}},
		{"not a uuid", AssignRequest{ActorID: "u1", Role: "MOE"}},
		{"missing role", AssignRequest{ActorID: actorAlice}},
		{"role outside enum", AssignRequest{ActorID: actorAlice, Role: "ADMIN"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.AssignRole(ctx, "admin", "c1", tc.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Empty(t, store.assignments)
}

func TestRemoveRole(t *testing.T) {
	store := newMockStore()
	store.assignments[key(actorAlice, "c1")] = "MANDATAIRE"
	svc, inv, aud := newTestService(store)
	ctx := context.Background()

	require.NoError(t, svc.RemoveRole(ctx, "admin", actorAlice, "c1"))
	assert.Empty(t, store.assignments)
	assert.Equal(t, []string{actorAlice}, inv.invalidated)
	require.Len(t, aud.logs, 1)
	assert.Equal(t, "role.remove", aud.logs[0].Action)

	// Removing an assignment that no longer exists surfaces the error.
	err := svc.RemoveRole(ctx, "admin", actorAlice, "c1")
	assert.ErrorIs(t, err, directory.ErrNotFound)
}

func TestListAssignments(t *testing.T) {
	store := newMockStore()
	store.profiles[actorAlice] = directory.Profile{ActorID: actorAlice, Email: "alice@example.fr", FirstName: "Alice", LastName: "Durand"}
	store.assignments[key(actorAlice, "c1")] = "MOE"
	svc, _, _ := newTestService(store)

	got, err := svc.ListAssignments(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, roles.MarcheMOE, got[0].Role)
	assert.Equal(t, "alice@example.fr", got[0].Email)
}

func TestSearchActorsMinLength(t *testing.T) {
	store := newMockStore()
	svc, _, _ := newTestService(store)
	ctx := context.Background()

	assert.Nil(t, svc.SearchActors(ctx, ""))
	assert.Nil(t, svc.SearchActors(ctx, "a"))
	assert.Nil(t, svc.SearchActors(ctx, "  a  "))
	assert.Empty(t, store.searchLog, "short queries never reach the store")
}

func TestSearchActorsFoldsAccents(t *testing.T) {
	store := newMockStore()
	store.profiles[actorAlice] = directory.Profile{ActorID: actorAlice, Email: "sebastien@example.fr", FirstName: "Sébastien", LastName: "Noël"}
	svc, _, _ := newTestService(store)

	hits := svc.SearchActors(context.Background(), "SÉbas")
	require.Len(t, hits, 1)
	assert.Equal(t, actorAlice, hits[0].ActorID)
	require.Len(t, store.searchLog, 1)
	assert.Equal(t, "sebas", store.searchLog[0])
}

func TestSearchActorsSilentOnError(t *testing.T) {
	store := newMockStore()
	store.searchErr = errors.New("timeout")
	svc, _, _ := newTestService(store)

	assert.Nil(t, svc.SearchActors(context.Background(), "dupont"))
}

func TestAssignableActors(t *testing.T) {
	hits := []ActorHit{
		{ActorID: actorAlice, Email: "alice@example.fr"},
		{ActorID: actorBruno, Email: "bruno@example.fr"},
	}
	assigned := []Collaborator{{ActorID: actorAlice, Role: roles.MarcheMOE}}

	got := AssignableActors(hits, assigned)
	require.Len(t, got, 1)
	assert.Equal(t, actorBruno, got[0].ActorID)

	assert.Equal(t, hits, AssignableActors(hits, nil))
	assert.Empty(t, AssignableActors(nil, assigned))
}
