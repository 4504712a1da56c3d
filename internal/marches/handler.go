package marches

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batiflow/batiflow/internal/authz"
	"github.com/batiflow/batiflow/internal/collab"
	"github.com/batiflow/batiflow/internal/platform/httpx"
	"github.com/batiflow/batiflow/internal/shared"
)

// Handler manages marché endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	collab  *collab.Handler
	authz   authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, collabHandler *collab.Handler, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, collab: collabHandler, authz: authz}
}

// MountRoutes registers marché routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.authz.RequireAuthenticated)

	r.Get("/", h.list)
	r.With(h.authz.RequireCreateMarche).Post("/", h.create)

	r.Route("/{marcheID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.authz.RequireViewMarche("marcheID"))
			r.Get("/", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.authz.RequireManageRoles("marcheID"))
			r.Put("/", h.update)
			r.Delete("/", h.archive)
		})
		r.Route("/collaborateurs", h.collab.MountRoutes)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListForActor(r.Context(), sess.Actor())
	if err != nil {
		h.logger.Error("list marches", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not load marchés")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"marches": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "marcheID")
	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such marché")
			return
		}
		h.logger.Error("get marche", slog.String("marche", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not load marché")
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	m, err := h.service.Create(r.Context(), sess.Actor(), req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
			return
		}
		h.logger.Error("create marche", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not create marché")
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "marcheID")
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	sess := shared.SessionFromContext(r.Context())
	m, err := h.service.Update(r.Context(), sess.Actor(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such marché")
		default:
			h.logger.Error("update marche", slog.String("marche", id), slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not update marché")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "marcheID")
	sess := shared.SessionFromContext(r.Context())
	if err := h.service.Archive(r.Context(), sess.Actor(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such marché")
			return
		}
		h.logger.Error("archive marche", slog.String("marche", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not archive marché")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "archived"})
}
