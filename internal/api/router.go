package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tutanak-ai/tutanak/internal/api/handlers"
	mw "github.com/tutanak-ai/tutanak/internal/api/middleware"
	"github.com/tutanak-ai/tutanak/internal/buildconfig"
	"github.com/tutanak-ai/tutanak/internal/config"
	"github.com/tutanak-ai/tutanak/internal/domain"
	"github.com/tutanak-ai/tutanak/internal/embedding"
	"github.com/tutanak-ai/tutanak/internal/llm"
	"github.com/tutanak-ai/tutanak/internal/resolver"
	"github.com/tutanak-ai/tutanak/internal/service"
	"github.com/tutanak-ai/tutanak/internal/store"
)

// App holds the router and request metrics for lifecycle management.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) (*App, error) {
	// Stores
	statementStore := store.NewStatementStore(db)
	identityStore := store.NewIdentityStore(db)

	// External clients via provider factory. Misconfiguration fails startup;
	// a nil client would only surface as a panic on the first query.
	llmProvider := config.LLMProvider()
	embeddingProvider := config.EmbeddingProvider()

	judgeClient, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		return nil, fmt.Errorf("judge client: %w", err)
	}
	logger.Info("judge client initialized", zap.String("provider", llmProvider))

	embeddingClient, err := embedding.NewClient(embeddingProvider, config.EmbeddingAPIKey())
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	logger.Info("embedding client initialized", zap.String("provider", embeddingProvider))

	// Services
	speakerResolver := resolver.New(identityStore, logger)
	judgeSvc := service.NewJudgeService(judgeClient, logger)
	judgeSvc.SetWorkers(config.JudgeWorkers())
	judgeSvc.SetTimeout(config.JudgeTimeout())
	detectSvc := service.NewDetectionService(statementStore, speakerResolver, embeddingClient, judgeSvc, logger)
	ingestSvc := service.NewIngestService(statementStore, speakerResolver, embeddingClient, logger)

	// Handlers
	detectHandler := handlers.NewDetectHandler(detectSvc)
	ingestHandler := handlers.NewIngestHandler(ingestSvc)
	speakersHandler := handlers.NewSpeakersHandler(speakerResolver, identityStore)
	statementsHandler := handlers.NewStatementsHandler(statementStore)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.TokenAuth(config.APIToken()))

		r.Post("/detect", detectHandler.Detect)
		r.Post("/ingest", ingestHandler.Ingest)
		r.Delete("/sources/{sourceID}", ingestHandler.DeleteSource)

		r.Route("/speakers", func(r chi.Router) {
			r.Get("/", speakersHandler.List)
			r.Get("/resolve", speakersHandler.Resolve)
		})

		r.Get("/statements/{id}", statementsHandler.GetByID)
	})

	return app, nil
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) (*chi.Mux, error) {
	app, err := NewApp(db, logger)
	if err != nil {
		return nil, err
	}
	return app.Router, nil
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.StatementStore     = (*store.StatementStore)(nil)
	_ domain.IdentityStore      = (*store.IdentityStore)(nil)
	_ domain.EmbeddingClient    = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient    = (*embedding.MockClient)(nil)
	_ domain.JudgeClient        = (*llm.OpenAIClient)(nil)
	_ domain.JudgeClient        = (*llm.AnthropicClient)(nil)
	_ domain.JudgeClient        = (*llm.GeminiClient)(nil)
	_ domain.JudgeClient        = (*llm.CerebrasClient)(nil)
	_ domain.JudgeClient        = (*llm.MockClient)(nil)
	_ service.SpeakerResolver   = (*resolver.Resolver)(nil)
	_ service.IdentityRegistrar = (*resolver.Resolver)(nil)
)
