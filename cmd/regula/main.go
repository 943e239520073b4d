package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	rghttp "github.com/stabledocs/regula/internal/adapter/http"
	rgnats "github.com/stabledocs/regula/internal/adapter/nats"
	"github.com/stabledocs/regula/internal/adapter/otel"
	"github.com/stabledocs/regula/internal/adapter/pdftext"
	"github.com/stabledocs/regula/internal/adapter/postgres"
	"github.com/stabledocs/regula/internal/adapter/ristretto"
	"github.com/stabledocs/regula/internal/adapter/ws"
	"github.com/stabledocs/regula/internal/config"
	"github.com/stabledocs/regula/internal/logger"
	"github.com/stabledocs/regula/internal/middleware"
	"github.com/stabledocs/regula/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// OpenTelemetry (no-op when no endpoint is configured)
	shutdownOtel, err := otel.Init(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS JetStream
	queue, err := rgnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	// In-process cache
	packCache, err := ristretto.New(cfg.Cache.MaxSizeMB * 1024 * 1024)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer packCache.Close()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)
	auditStore := postgres.NewAuditStore(pool)

	guidelineSvc := service.NewGuidelineService(store, auditStore, queue)
	packSvc := service.NewPackService(store, packCache)
	reviewSvc := service.NewReviewService(store, auditStore, hub)
	waiverSvc := service.NewWaiverService(store, auditStore)
	evalSvc := service.NewEvaluationService(store, auditStore, queue, hub, metrics)
	extractionSvc := service.NewExtractionService(store, auditStore, queue, pdftext.New(), hub, metrics)

	// Start the extraction worker (consumes queued extraction requests)
	cancelExtraction, err := extractionSvc.Start(ctx)
	if err != nil {
		return fmt.Errorf("extraction subscriber: %w", err)
	}
	defer cancelExtraction()

	// --- HTTP ---
	handlers := &rghttp.Handlers{
		Guidelines:  guidelineSvc,
		Packs:       packSvc,
		Rules:       reviewSvc,
		Waivers:     waiverSvc,
		Evaluations: evalSvc,
		Audit:       auditStore,
		UploadLimit: cfg.Upload.MaxSizeMB * 1024 * 1024,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(rghttp.CORS(cfg.Server.CORSOrigin))
	r.Use(middleware.RequestID)
	r.Use(middleware.Actor)
	r.Use(rghttp.Logger)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// Health endpoint with service status
	r.Get("/health", healthHandler(pool, queue))

	// WebSocket endpoint (extraction and evaluation events)
	r.Get("/ws", hub.HandleWS)

	// API routes
	rghttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(pool *pgxpool.Pool, queue *rgnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}
		code := http.StatusOK

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status.Status = "degraded"
			status.Postgres = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if !queue.IsConnected() {
			status.Status = "degraded"
			status.NATS = "disconnected"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
