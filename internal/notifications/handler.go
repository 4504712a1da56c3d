package notifications

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batiflow/batiflow/internal/authz"
	"github.com/batiflow/batiflow/internal/platform/httpx"
	"github.com/batiflow/batiflow/internal/shared"
)

// RepositoryPort defines data access methods for notifications.
type RepositoryPort interface {
	ListForActor(ctx context.Context, actorID string, onlyUnread bool, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, actorID string) (int, error)
	MarkRead(ctx context.Context, actorID, id string) error
	MarkAllRead(ctx context.Context, actorID string) (int, error)
}

// Handler manages notification endpoints.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
	authz  authz.Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, repo RepositoryPort, authz authz.Middleware) *Handler {
	return &Handler{logger: logger, repo: repo, authz: authz}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.authz.RequireAuthenticated)
	r.Get("/", h.list)
	r.Get("/unread-count", h.unreadCount)
	r.Post("/{notificationID}/read", h.markRead)
	r.Post("/read-all", h.markAllRead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	onlyUnread := r.URL.Query().Get("unread") == "1"
	list, err := h.repo.ListForActor(r.Context(), sess.Actor(), onlyUnread, 50)
	if err != nil {
		h.logger.Error("list notifications", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not load notifications")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	count, err := h.repo.UnreadCount(r.Context(), sess.Actor())
	if err != nil {
		h.logger.Error("unread count", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not count notifications")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	id := chi.URLParam(r, "notificationID")
	if err := h.repo.MarkRead(r.Context(), sess.Actor(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "no such notification")
			return
		}
		h.logger.Error("mark read", slog.String("notification", id), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not mark notification")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "read"})
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	count, err := h.repo.MarkAllRead(r.Context(), sess.Actor())
	if err != nil {
		h.logger.Error("mark all read", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "could not mark notifications")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"marked": count})
}
