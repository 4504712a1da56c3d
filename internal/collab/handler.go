package collab

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/batiflow/batiflow/internal/authz"
	"github.com/batiflow/batiflow/internal/directory"
	"github.com/batiflow/batiflow/internal/platform/httpx"
	"github.com/batiflow/batiflow/internal/shared"
)

// Handler manages collaborator endpoints, nested under a marché route.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: authz}
}

// MountRoutes registers collaborator routes. The router is expected to
// carry a {marcheID} URL parameter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireViewMarche("marcheID"))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireManageRoles("marcheID"))
		// Live-typing affordance, keep it from hammering the directory.
		r.With(httprate.LimitByIP(30, 10*time.Second)).Get("/search", h.search)
		r.Post("/", h.assign)
		r.Delete("/{actorID}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	marcheID := chi.URLParam(r, "marcheID")
	assignments, err := h.service.ListAssignments(r.Context(), marcheID)
	if err != nil {
		h.logger.Error("list assignments", slog.String("marche", marcheID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not load collaborators")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"collaborators": assignments})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	marcheID := chi.URLParam(r, "marcheID")
	query := r.URL.Query().Get("q")

	hits := h.service.SearchActors(r.Context(), query)

	// The picker only offers actors not already on the marché.
	assigned, err := h.service.ListAssignments(r.Context(), marcheID)
	if err != nil {
		h.logger.Warn("assignments for search filter", slog.Any("error", err))
		assigned = nil
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actors": AssignableActors(hits, assigned)})
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	marcheID := chi.URLParam(r, "marcheID")
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.AssignRole(r.Context(), sess.Actor(), marcheID, req); err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("assign role", slog.String("marche", marcheID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not assign role")
		return
	}
	assignments, err := h.service.ListAssignments(r.Context(), marcheID)
	if err != nil {
		httpx.JSON(w, http.StatusCreated, map[string]any{"status": "assigned"})
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"status": "assigned", "collaborators": assignments})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	marcheID := chi.URLParam(r, "marcheID")
	actorID := chi.URLParam(r, "actorID")
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.RemoveRole(r.Context(), sess.Actor(), actorID, marcheID); err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, directory.ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such assignment")
		default:
			h.logger.Error("remove role", slog.String("marche", marcheID), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not remove role")
		}
		return
	}
	assignments, err := h.service.ListAssignments(r.Context(), marcheID)
	if err != nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"status": "removed"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "removed", "collaborators": assignments})
}
