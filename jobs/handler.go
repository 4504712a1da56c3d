package jobs

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/batiflow/batiflow/internal/platform/httpx"
)

// InternalSchedulerHeader marks a request from a trusted scheduler that
// bypasses bearer authentication.
const InternalSchedulerHeader = "X-Internal-Scheduler"

// Handler exposes the HTTP trigger for the alert scan. External
// schedulers call it with a bearer token; in-cluster schedulers set the
// internal header instead.
type Handler struct {
	checker *AlertChecker
	token   string
	logger  *slog.Logger
}

// NewHandler constructs the jobs HTTP handler.
func NewHandler(checker *AlertChecker, token string, logger *slog.Logger) *Handler {
	return &Handler{checker: checker, token: token, logger: logger}
}

// MountRoutes registers the trigger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(wideOpenCORS)
	r.Options("/alerts/run", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/alerts/run", h.runAlerts)
}

type alertRunResponse struct {
	Success            bool        `json:"success"`
	NotificationsCount AlertCounts `json:"notificationsCount"`
	Message            string      `json:"message"`
}

func (h *Handler) runAlerts(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		httpx.JSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	counts, err := h.checker.Run(r.Context())
	if err != nil {
		h.logger.Error("alert scan", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, map[string]string{"error": "alert scan failed"})
		return
	}

	httpx.JSON(w, http.StatusOK, alertRunResponse{
		Success:            true,
		NotificationsCount: counts,
		Message:            "alert scan completed",
	})
}

func (h *Handler) authorized(r *http.Request) bool {
	if r.Header.Get(InternalSchedulerHeader) == "true" {
		return true
	}
	if h.token == "" {
		return false
	}
	bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return subtle.ConstantTimeCompare([]byte(bearer), []byte(h.token)) == 1
}

// wideOpenCORS applies to the scheduler trigger only; the rest of the
// API stays same-origin.
func wideOpenCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "authorization, content-type, "+InternalSchedulerHeader)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}
