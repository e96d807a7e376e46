package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/screening-backend/internal/config"
	"github.com/stemsi/screening-backend/internal/database"
	"github.com/stemsi/screening-backend/internal/handler"
	"github.com/stemsi/screening-backend/internal/logger"
	"github.com/stemsi/screening-backend/internal/middleware"
	"github.com/stemsi/screening-backend/internal/repository"
	"github.com/stemsi/screening-backend/internal/router"
	"github.com/stemsi/screening-backend/internal/screening"
	"github.com/stemsi/screening-backend/internal/service"
	"github.com/stemsi/screening-backend/internal/validator"
	"github.com/stemsi/screening-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting screening backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	substanceRepo := repository.NewSubstanceRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	sessionRepo := repository.NewAssessmentSessionRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	catalogService := service.NewCatalogService(substanceRepo, catalogRepo, rdb, cfg.CatalogCacheTTL, log)
	scorer := screening.NewScorer(
		screening.Bands{MediumFrom: cfg.AssistBands.MediumMin, HighFrom: cfg.AssistBands.HighMin},
		screening.Bands{MediumFrom: cfg.CrafftBands.MediumMin, HighFrom: cfg.CrafftBands.HighMin},
	)
	assessmentService := service.NewAssessmentService(
		catalogService,
		service.NewRedisSessionStore(rdb, cfg.SessionTTL),
		sessionRepo,
		service.NewRedisAnswerJournal(rdb),
		service.NewQueueSubmitter(rdb),
		courseRepo,
		resultRepo,
		scorer,
		log,
	)

	// ─── Initialize Handlers ──────────────────────────────────────────
	submitLimiter := middleware.NewRateLimiter(rdb, cfg.SubmitPerMinute, time.Minute)
	handlers := &router.Handlers{
		Catalog:    handler.NewCatalogHandler(catalogService),
		Assessment: handler.NewAssessmentHandler(assessmentService),
		WS:         handler.NewWSHandler(assessmentService, submitLimiter, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)
	draftWorker := worker.NewDraftAnswerWorker(sessionRepo, rdb, log)

	workers.Add(2)
	go func() { defer workers.Done(); resultWorker.Start(workerCtx) }()
	go func() { defer workers.Done(); draftWorker.Start(workerCtx) }()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	// Load the catalog into Redis before accepting traffic.
	if err := catalogService.Warm(ctx); err != nil {
		log.Warn().Err(err).Msg("Catalog cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, submitLimiter, handlers, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for their queues to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
