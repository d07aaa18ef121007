package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/hrplus/talent-hub/internal/api/handlers"
	"github.com/hrplus/talent-hub/internal/api/middleware"
	"github.com/hrplus/talent-hub/internal/bias"
	"github.com/hrplus/talent-hub/internal/config"
	"github.com/hrplus/talent-hub/internal/jobs"
	"github.com/hrplus/talent-hub/internal/observability"
	"github.com/hrplus/talent-hub/internal/repository"
	"github.com/hrplus/talent-hub/internal/service"
	"github.com/hrplus/talent-hub/internal/worker"
	"github.com/hrplus/talent-hub/pkg/database"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithMaxConns(int32(cfg.DBMaxConns)))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize metrics if enabled
	var metricsProvider *observability.Provider
	if cfg.MetricsEnabled {
		metricsProvider, err = observability.NewProvider()
		if err != nil {
			slog.Error("Failed to initialize metrics", "error", err)
			os.Exit(1)
		}
	}

	var (
		apiMetrics      observability.APIMetrics
		insightsMetrics observability.InsightsMetrics
	)
	if metricsProvider != nil {
		apiMetrics = metricsProvider.Metrics.API
		insightsMetrics = metricsProvider.Metrics.Insights
	}

	// Initialize repositories
	nudgeTemplatesRepo := repository.NewNudgeTemplatesRepository(db)
	biasPatternsRepo := repository.NewBiasPatternsRepository(db)
	explainabilityRepo := repository.NewExplainabilityRepository(db)
	notificationsRepo := repository.NewNotificationsRepository(db)
	cyclesRepo := repository.NewCyclesRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	signalDefinitionsRepo := repository.NewSignalDefinitionsRepository(db)
	snapshotsRepo := repository.NewSnapshotsRepository(db)

	// Initialize services
	detector := bias.NewDetector(bias.DefaultConfig())
	biasService := service.NewBiasService(
		detector,
		nudgeTemplatesRepo,
		biasPatternsRepo,
		explainabilityRepo,
		notificationsRepo,
		insightsMetrics,
	)

	// The signals service is built first without a job inserter; River needs
	// the service to exist for its worker, so the inserter is attached below.
	signalsService := service.NewSignalsService(
		cyclesRepo,
		feedbackRepo,
		signalDefinitionsRepo,
		snapshotsRepo,
		nil,
		insightsMetrics,
	)

	// Initialize River job queue if enabled
	var riverClient *river.Client[pgx.Tx]
	if cfg.RiverEnabled {
		riverClient, err = initRiver(ctx, db, cfg, signalsService)
		if err != nil {
			slog.Error("Failed to initialize River job queue", "error", err)
			os.Exit(1)
		}

		signalsService = service.NewSignalsService(
			cyclesRepo,
			feedbackRepo,
			signalDefinitionsRepo,
			snapshotsRepo,
			jobs.NewRiverJobInserter(riverClient),
			insightsMetrics,
		)

		slog.Info("River job queue enabled",
			"workers", cfg.RiverWorkers,
			"max_retries", cfg.RiverMaxRetries,
		)
	} else {
		slog.Info("River job queue disabled (RIVER_ENABLED=false), recalculation runs synchronously")
	}

	biasHandler := handlers.NewBiasHandler(biasService)
	signalsHandler := handlers.NewSignalsHandler(signalsService)
	healthHandler := handlers.NewHealthHandler()

	// Set up public endpoints (no authentication required)
	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)
	if metricsProvider != nil {
		publicMux.Handle("GET /metrics", metricsProvider.Handler())
	}

	// Set up protected function endpoints (authentication required)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/functions/bias-detector", biasHandler.Handle)
	protectedMux.HandleFunc("POST /v1/functions/signal-processor", signalsHandler.Handle)

	// Order matters: CORS must wrap Auth so OPTIONS preflight requests bypass authentication
	var protectedHandler http.Handler = protectedMux
	protectedHandler = middleware.Auth(cfg.APIKey)(protectedHandler)
	if cfg.RateLimitRPS > 0 {
		protectedHandler = middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst)(protectedHandler)
	}
	protectedHandler = middleware.CORS(protectedHandler)

	// Combine both handlers
	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, /metrics)

	// Apply logging, metrics, and request IDs to all requests
	var handler http.Handler = mainMux
	handler = middleware.Logging(handler)
	handler = middleware.Metrics(apiMetrics)(handler)
	handler = middleware.RequestID(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Start cycle sweeper if enabled
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.SweeperEnabled {
		sweeper := worker.NewCycleSweeper(
			cyclesRepo,
			signalsService,
			cfg.SweeperPollInterval,
			cfg.SweeperBatchSize,
		)
		go sweeper.Start(workerCtx)
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Stop River (waits for in-flight jobs to complete)
	if riverClient != nil {
		slog.Info("Stopping River job queue...")
		if err := riverClient.Stop(shutdownCtx); err != nil {
			slog.Error("River forced to shutdown", "error", err)
		}
		slog.Info("River job queue stopped")
	}

	// 3. Flush metrics
	if metricsProvider != nil {
		if err := metricsProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics provider forced to shutdown", "error", err)
		}
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewRequestContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}

// initRiver initializes the River job queue client and workers
func initRiver(
	ctx context.Context,
	db *pgxpool.Pool,
	cfg *config.Config,
	processor jobs.CycleProcessor,
) (*river.Client[pgx.Tx], error) {
	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewSignalWorker(processor))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.RiverWorkers},
		},
		Workers:      workers,
		ErrorHandler: &jobs.ErrorHandler{},
		JobTimeout:   60 * time.Second, // a full cycle aggregation fits comfortably
		MaxAttempts:  cfg.RiverMaxRetries,
	})
	if err != nil {
		return nil, err
	}

	// Start River (begins processing jobs)
	if err := riverClient.Start(ctx); err != nil {
		return nil, err
	}

	return riverClient, nil
}
