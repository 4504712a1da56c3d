package roles

import (
	"context"
	"sync"
)

// CacheState tracks the lifecycle of a session cache entry.
type CacheState int

const (
	StateUninitialized CacheState = iota
	StateLoading
	StateReady
	StateLoadingMarcheRole
)

// SessionCache holds the resolved roles for one authenticated session:
// the global role plus a marché-id → role map. It lives for the session
// only, is never shared across sessions, and grows with the number of
// distinct marchés the actor touches. There is no eviction; Invalidate
// or Refresh is the only way to drop entries.
type SessionCache struct {
	resolver *Resolver
	actorID  string

	mu          sync.Mutex
	state       CacheState
	globalRole  GlobalRole
	marcheRoles map[string]MarcheRole
}

// NewSessionCache constructs an unloaded cache for the actor.
func NewSessionCache(resolver *Resolver, actorID string) *SessionCache {
	return &SessionCache{
		resolver:    resolver,
		actorID:     actorID,
		state:       StateUninitialized,
		globalRole:  GlobalStandard,
		marcheRoles: make(map[string]MarcheRole),
	}
}

// ActorID returns the identity the cache was built for.
func (c *SessionCache) ActorID() string {
	return c.actorID
}

// State reports the current lifecycle state.
func (c *SessionCache) State() CacheState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Load performs the full load: global role plus every marché role the
// actor currently holds. Resolver failures degrade to defaults, so Load
// always leaves the cache Ready.
func (c *SessionCache) Load(ctx context.Context) {
	c.mu.Lock()
	c.state = StateLoading
	c.mu.Unlock()

	global := c.resolver.GlobalRole(ctx, c.actorID)
	marcheRoles := c.resolver.MarcheRoles(ctx, c.actorID)

	c.mu.Lock()
	c.globalRole = global
	c.marcheRoles = marcheRoles
	c.state = StateReady
	c.mu.Unlock()
}

// EnsureLoaded triggers the initial full load when it has not happened
// yet. No-op once the cache left the unloaded state.
func (c *SessionCache) EnsureLoaded(ctx context.Context) {
	c.mu.Lock()
	uninitialized := c.state == StateUninitialized
	c.mu.Unlock()
	if uninitialized {
		c.Load(ctx)
	}
}

// GlobalRole returns the last known global role synchronously. Before
// the first Load completes it reports the STANDARD default.
func (c *SessionCache) GlobalRole() GlobalRole {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.globalRole
}

// MarcheRole returns the actor's role on the marché, fetching it
// read-through when the id is absent from the map. The fetched value is
// retained, including the no-role sentinel, until the next Refresh.
func (c *SessionCache) MarcheRole(ctx context.Context, marcheID string) MarcheRole {
	c.mu.Lock()
	if c.state == StateUninitialized {
		c.mu.Unlock()
		c.Load(ctx)
		c.mu.Lock()
	}
	if role, ok := c.marcheRoles[marcheID]; ok {
		c.mu.Unlock()
		return role
	}
	c.state = StateLoadingMarcheRole
	c.mu.Unlock()

	// Partial reload: only the missing marché role is fetched, the
	// rest of the entry is retained.
	role := c.resolver.MarcheRole(ctx, c.actorID, marcheID)

	c.mu.Lock()
	c.marcheRoles[marcheID] = role
	c.state = StateReady
	c.mu.Unlock()
	return role
}

// Invalidate drops everything and returns the cache to its unloaded
// state. The next read triggers a full reload.
func (c *SessionCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateUninitialized
	c.globalRole = GlobalStandard
	c.marcheRoles = make(map[string]MarcheRole)
}

// Refresh is Invalidate followed by an immediate full Load.
func (c *SessionCache) Refresh(ctx context.Context) {
	c.Invalidate()
	c.Load(ctx)
}
