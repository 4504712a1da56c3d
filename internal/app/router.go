package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/batiflow/batiflow/internal/auth"
	"github.com/batiflow/batiflow/internal/authz"
	"github.com/batiflow/batiflow/internal/marches"
	"github.com/batiflow/batiflow/internal/notifications"
	"github.com/batiflow/batiflow/internal/observability"
	"github.com/batiflow/batiflow/internal/shared"
	"github.com/batiflow/batiflow/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger               *slog.Logger
	Config               *Config
	SessionManager       *shared.SessionManager
	CSRFManager          *shared.CSRFManager
	AuthHandler          *auth.Handler
	CapabilitiesHandler  *authz.Handler
	MarchesHandler       *marches.Handler
	NotificationsHandler *notifications.Handler
	JobsHandler          *jobs.Handler
	Metrics              *observability.Metrics
}

// NewRouter constructs the chi.Router with Batiflow defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/me", params.CapabilitiesHandler.MountRoutes)
	r.Route("/marches", params.MarchesHandler.MountRoutes)
	r.Route("/notifications", params.NotificationsHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/internal/jobs", params.JobsHandler.MountRoutes)
	}

	return r
}
