package roles

import "sync"

// Registry owns one SessionCache per active session id. Entries are
// created on first access and dropped on logout; an identity change
// under the same session id replaces the entry wholesale.
type Registry struct {
	resolver *Resolver

	mu     sync.RWMutex
	caches map[string]*SessionCache
}

// NewRegistry constructs an empty registry.
func NewRegistry(resolver *Resolver) *Registry {
	return &Registry{
		resolver: resolver,
		caches:   make(map[string]*SessionCache),
	}
}

// ForSession returns the cache bound to the session, creating it when
// missing or when the session's actor changed since the cache was built.
func (r *Registry) ForSession(sessionID, actorID string) *SessionCache {
	r.mu.RLock()
	cache, ok := r.caches[sessionID]
	r.mu.RUnlock()
	if ok && cache.ActorID() == actorID {
		return cache
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cache, ok := r.caches[sessionID]; ok && cache.ActorID() == actorID {
		return cache
	}
	cache = NewSessionCache(r.resolver, actorID)
	r.caches[sessionID] = cache
	return cache
}

// Drop removes the cache for a session. Called on teardown; there is no
// persistence across sessions.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.caches, sessionID)
}

// Invalidate marks the session's cache stale so the next read reloads.
// Used after a role mutation performed by that same session.
func (r *Registry) Invalidate(sessionID string) {
	r.mu.RLock()
	cache, ok := r.caches[sessionID]
	r.mu.RUnlock()
	if ok {
		cache.Invalidate()
	}
}

// InvalidateActor invalidates every session cache built for the actor.
// A role mutation targeting an actor makes all of their sessions stale.
func (r *Registry) InvalidateActor(actorID string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cache := range r.caches {
		if cache.ActorID() == actorID {
			cache.Invalidate()
		}
	}
}
