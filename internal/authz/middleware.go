package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batiflow/batiflow/internal/platform/httpx"
	"github.com/batiflow/batiflow/internal/shared"
)

// Middleware wires capability checks in front of HTTP handlers. Local
// guards here are advisory pre-checks; row-level policies in the
// directory remain authoritative and always win.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// RequireAuthenticated rejects requests without a signed-in actor.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := currentActor(r); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCreateMarche gates marché creation.
func (m Middleware) RequireCreateMarche(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, actorID, ok := currentActor(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		if !m.Guard.CanCreateMarche(r.Context(), sessionID, actorID) {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "creating marchés requires the MOE or ADMIN role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireManageRoles gates collaborator management on the marché named
// by the URL parameter.
func (m Middleware) RequireManageRoles(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, actorID, ok := currentActor(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			marcheID := chi.URLParam(r, param)
			if marcheID == "" {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing marché id")
				return
			}
			if !m.Guard.CanManageRoles(r.Context(), sessionID, actorID, marcheID) {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "managing collaborators requires the MOE role on this marché")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireViewMarche gates read access to the marché named by the URL
// parameter. Always decided by the directory, never by the local cache.
func (m Middleware) RequireViewMarche(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, actorID, ok := currentActor(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			marcheID := chi.URLParam(r, param)
			if marcheID == "" {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing marché id")
				return
			}
			if !m.Guard.CanViewMarche(r.Context(), actorID, marcheID) {
				httpx.Problem(w, http.StatusNotFound, "Not Found", "marché not accessible")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentActor(r *http.Request) (sessionID, actorID string, ok bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.Actor() == "" {
		return "", "", false
	}
	return sess.ID, sess.Actor(), true
}
