package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batiflow/batiflow/internal/platform/httpx"
	"github.com/batiflow/batiflow/internal/roles"
)

// Handler exposes the capability API consumed by the front end: the
// cached roles plus the derived boolean helpers.
type Handler struct {
	logger *slog.Logger
	guard  *Guard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, guard *Guard) *Handler {
	return &Handler{logger: logger, guard: guard}
}

// MountRoutes registers capability routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/capabilities", h.capabilities)
	r.Post("/capabilities/refresh", h.refresh)
}

type capabilitiesResponse struct {
	ActorID         string `json:"actor_id"`
	Role            string `json:"role"`
	Loading         bool   `json:"loading"`
	MarcheID        string `json:"marche_id,omitempty"`
	MarcheRole      string `json:"marche_role,omitempty"`
	CanCreateMarche bool   `json:"can_create_marche"`
	CanManageRoles  *bool  `json:"can_manage_roles,omitempty"`
}

func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	sessionID, actorID, ok := currentActor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}

	cache := h.guard.Cache(sessionID, actorID)
	// loading reflects the cache state at request arrival: true means
	// this call had to trigger a fresh role load for the session.
	loading := cache.State() != roles.StateReady
	cache.EnsureLoaded(r.Context())

	resp := capabilitiesResponse{
		ActorID:         actorID,
		Role:            string(cache.GlobalRole()),
		Loading:         loading,
		CanCreateMarche: CanCreateMarche(cache.GlobalRole()),
	}

	if marcheID := r.URL.Query().Get("marche_id"); marcheID != "" {
		marcheRole := cache.MarcheRole(r.Context(), marcheID)
		manage := CanManageRoles(cache.GlobalRole(), marcheRole)
		resp.MarcheID = marcheID
		resp.MarcheRole = string(marcheRole)
		resp.CanManageRoles = &manage
	}

	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	sessionID, actorID, ok := currentActor(r)
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	h.guard.Cache(sessionID, actorID).Refresh(r.Context())
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
