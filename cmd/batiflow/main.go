package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/batiflow/batiflow/internal/app"
	"github.com/batiflow/batiflow/internal/auth"
	"github.com/batiflow/batiflow/internal/authz"
	"github.com/batiflow/batiflow/internal/collab"
	"github.com/batiflow/batiflow/internal/directory"
	"github.com/batiflow/batiflow/internal/marches"
	"github.com/batiflow/batiflow/internal/notifications"
	"github.com/batiflow/batiflow/internal/observability"
	"github.com/batiflow/batiflow/internal/platform/cache"
	"github.com/batiflow/batiflow/internal/platform/db"
	"github.com/batiflow/batiflow/internal/roles"
	"github.com/batiflow/batiflow/internal/shared"
	"github.com/batiflow/batiflow/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "batiflow_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)

	dir := directory.NewRepository(dbpool)
	resolver := roles.NewResolver(dir, logger, metrics)
	registry := roles.NewRegistry(resolver)
	guard := authz.NewGuard(registry, resolver, dir, logger, metrics)
	guardMW := authz.Middleware{Guard: guard, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, registry)

	capabilitiesHandler := authz.NewHandler(logger, guard)

	collabService := collab.NewService(dir, registry, auditLogger, logger)
	collabHandler := collab.NewHandler(logger, collabService, guardMW)

	marchesRepo := marches.NewRepository(dbpool)
	marchesService := marches.NewService(marchesRepo, resolver, dir, dir, auditLogger, logger)
	marchesHandler := marches.NewHandler(logger, marchesService, collabHandler, guardMW)

	notificationsRepo := notifications.NewRepository(dbpool)
	notificationsHandler := notifications.NewHandler(logger, notificationsRepo, guardMW)

	alertChecker := jobs.NewAlertChecker(jobs.NewPGAlertStore(dbpool), logger)
	jobsHandler := jobs.NewHandler(alertChecker, cfg.AlertsToken, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		AuthHandler:          authHandler,
		CapabilitiesHandler:  capabilitiesHandler,
		MarchesHandler:       marchesHandler,
		NotificationsHandler: notificationsHandler,
		JobsHandler:          jobsHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
