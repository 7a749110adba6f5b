package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fieldops-ai/fieldops/internal/config"
	dbRedis "github.com/fieldops-ai/fieldops/internal/db/redis"
	"github.com/fieldops-ai/fieldops/internal/domain"
	"github.com/fieldops-ai/fieldops/internal/extract"
	logpkg "github.com/fieldops-ai/fieldops/internal/logger"
	"github.com/fieldops-ai/fieldops/internal/metrics"
	vectorrepo "github.com/fieldops-ai/fieldops/internal/repository/vector"
	"github.com/fieldops-ai/fieldops/internal/storage"
	openaiTransport "github.com/fieldops-ai/fieldops/internal/transport/openai"
	agentuc "github.com/fieldops-ai/fieldops/internal/usecase/agent"
	indexuc "github.com/fieldops-ai/fieldops/internal/usecase/index"
	ingestuc "github.com/fieldops-ai/fieldops/internal/usecase/ingest"
	llmuc "github.com/fieldops-ai/fieldops/internal/usecase/llm"
	"github.com/fieldops-ai/fieldops/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting fieldops retrieval core",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterAgentMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	// Instruct-tuned embedding models want different prefixes for queries and
	// documents; plain models run with both instructions empty.
	queryEmbed := domain.Embedder(embedder)
	if instr := cfg.Embedding.QueryInstruction; instr != "" {
		queryEmbed = domain.NewInstructionEmbedder(embedder, instr)
	}
	docEmbed := domain.BatchEmbedder(embedder)
	if instr := cfg.Embedding.DocumentInstruction; instr != "" {
		docEmbed = domain.NewInstructionEmbedder(embedder, instr)
	}

	indexSvc := indexuc.NewService(vectorrepo.New(store), queryEmbed, docEmbed, cfg.Embedding.Dimensions, logger)
	if err := indexSvc.EnsureReady(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}
	logger.Info("Vector index ready", zap.String("index", vectorrepo.IndexName()))

	fileStore, err := storage.NewFileStore(cfg.Storage.Root)
	if err != nil {
		logger.Fatal("Failed to create file store", zap.Error(err))
	}

	ingestSvc := ingestuc.NewService(
		extract.NewService(), indexSvc, fileStore,
		cfg.Chunking.Size, cfg.Chunking.Overlap, logger,
	)

	orchestrator := agentuc.NewOrchestrator(
		llmuc.NewChain(cfg.LLM.Providers, logger),
		indexSvc,
		agentuc.Config{
			Timeout:         time.Duration(cfg.Agent.TimeoutSec) * time.Second,
			MaxIterations:   cfg.Agent.MaxIterations,
			MaxHistoryTurns: cfg.Agent.MaxHistoryTurns,
		},
		logger,
	)

	handlers := newAPI(ingestSvc, indexSvc, orchestrator, store, embedder)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(metrics.Middleware())
	r.Get("/healthz", handlers.healthz)
	r.Get("/readyz", handlers.readyz)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/internal/v1", func(r chi.Router) {
		r.Post("/agent/query", handlers.agentQuery)
		r.Post("/documents/{tenantID}/{documentID}", handlers.processDocument)
		r.Post("/documents/{tenantID}/{documentID}/reprocess", handlers.reprocessDocument)
		r.Delete("/documents/{tenantID}/{documentID}", handlers.deleteDocument)
		r.Get("/tenants/{tenantID}/chunks", handlers.tenantChunks)
	})

	// The agent loop can legitimately run for minutes; the write timeout must
	// outlast it.
	writeTimeout := time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second
	if agentBudget := time.Duration(cfg.Agent.TimeoutSec+30) * time.Second; writeTimeout < agentBudget {
		writeTimeout = agentBudget
	}

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: writeTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// requestLogger puts a request-scoped logger in the context so handlers log
// with the chi request ID attached.
func requestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
				l = base.With(zap.String("request_id", reqID))
			}
			next.ServeHTTP(w, r.WithContext(logpkg.WithContext(r.Context(), l)))
		})
	}
}
