package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"copurchase-dashboard/internal/config"
	"copurchase-dashboard/internal/dataset"
	"copurchase-dashboard/internal/middleware"
	"copurchase-dashboard/internal/observability"
	"copurchase-dashboard/internal/server"
	"copurchase-dashboard/internal/session"
	"copurchase-dashboard/internal/ui/templates"
)

const (
	renderTimeout = 10 * time.Second
	warmupTimeout = 30 * time.Second
	cacheMaxAge   = "private, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func newPipeline(cfg *config.Config, logger *slog.Logger) (*dataset.Pipeline, error) {
	policy, err := dataset.ParsePolicy(cfg.Data.Policy)
	if err != nil {
		return nil, err
	}
	classifier, err := dataset.RoleClassifierFor(cfg.Data.LeaderRule)
	if err != nil {
		return nil, err
	}

	loader := dataset.NewLoader(dataset.Options{
		Policy:     policy,
		DataDir:    cfg.Data.Dir,
		SearchDirs: cfg.Data.SearchDirs,
		Seed:       cfg.Data.Seed,
		Workers:    cfg.Data.Workers,
		Logger:     logger,
	})
	return dataset.NewPipeline(loader, classifier), nil
}

// buildHandler wires the session store, routes and middleware stack.
func buildHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, *session.Store, error) {
	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}

	store := session.NewStore(pipeline, session.Options{
		IdleTimeout: cfg.Session.IdleTimeout,
		MaxSessions: cfg.Session.MaxSessions,
		Logger:      logger,
	})

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}
	srv := server.NewServer(store, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Session(cfg.Session),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return middlewareChain(srv), store, nil
}

// warmUp runs the pipeline once so a broken data directory shows up in the
// startup log rather than on the first page view.
func warmUp(ctx context.Context, store *session.Store, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	start := time.Now()
	a, err := store.Analytics(ctx, "")
	if err != nil {
		return err
	}
	report := a.Report()
	logger.Info("dataset warm-up complete",
		"duration", time.Since(start),
		"policy", report.Policy,
		"sample", report.Sample,
		"record_counts", a.Stats()["record_counts"],
	)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"policy", cfg.Data.Policy,
		"leader_rule", cfg.Data.LeaderRule,
		"addr", cfg.Address(),
	)

	handler, store, err := buildHandler(cfg, logger)
	if err != nil {
		logger.Error("failed to build handler", "error", err)
		os.Exit(1)
	}

	if err := warmUp(context.Background(), store, logger); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		logger.Info("dropping session caches", "sessions", store.Len())
		store.Clear()
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
