package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kbindex/kbindex/internal/config"
	dbRedis "github.com/kbindex/kbindex/internal/db/redis"
	"github.com/kbindex/kbindex/internal/docsource"
	logpkg "github.com/kbindex/kbindex/internal/logger"
	"github.com/kbindex/kbindex/internal/metrics"
	chunkrepo "github.com/kbindex/kbindex/internal/repository/chunk"
	collectionrepo "github.com/kbindex/kbindex/internal/repository/collection"
	"github.com/kbindex/kbindex/internal/segment"
	"github.com/kbindex/kbindex/internal/tokenizer"
	chiTransport "github.com/kbindex/kbindex/internal/transport/chi"
	openaiEmb "github.com/kbindex/kbindex/internal/transport/openai"
	"github.com/kbindex/kbindex/internal/transport/rerank"
	healthuc "github.com/kbindex/kbindex/internal/usecase/health"
	indexuc "github.com/kbindex/kbindex/internal/usecase/index"
	ingestuc "github.com/kbindex/kbindex/internal/usecase/ingest"
	queryuc "github.com/kbindex/kbindex/internal/usecase/query"
	"github.com/kbindex/kbindex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting kbindex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("rerank_model", cfg.Rerank.Model),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRerankMetrics()
	metrics.RegisterIngestMetrics()

	// Segmentation pipeline
	bpe, err := tokenizer.NewBPE(cfg.Ingest.TokenizerEncoding)
	if err != nil {
		logger.Fatal("Failed to load tokenizer encoding", zap.Error(err))
	}
	segmenter, err := segment.New(bpe, cfg.Ingest.MaxChunkTokens)
	if err != nil {
		logger.Fatal("Failed to create segmenter", zap.Error(err))
	}

	// Model providers
	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	reranker := rerank.NewReranker(&rerank.Config{
		BaseURL: cfg.Rerank.BaseURL,
		APIKey:  cfg.Rerank.APIKey,
		Model:   cfg.Rerank.Model,
		Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	// Probe providers before serving; a process that cannot embed or
	// rerank must not come up and fail per request instead.
	if err := probeProviders(ctx, []providerProbe{
		{"embedding", embedder},
		{"rerank", reranker},
	}); err != nil {
		logger.Fatal("Model provider not ready", zap.Error(err))
	}
	logger.Info("Providers ready",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("rerank_model", cfg.Rerank.Model),
	)

	// Repositories
	collRepo := collectionrepo.New(store)
	chunkRepo := chunkrepo.New(store)
	reader := docsource.NewReader()

	// Use case services
	indexSvc := indexuc.New(collRepo, chunkRepo)
	ingestSvc := ingestuc.New(collRepo, chunkRepo, segmenter, reader, embedder, logger).
		WithWorkers(cfg.Ingest.BatchWorkers)
	querySvc := queryuc.New(collRepo, chunkRepo, embedder, reranker).
		WithOverfetch(cfg.Query.Overfetch)
	healthSvc := healthuc.New(store, embedder, reranker)

	// HTTP server
	server := chiTransport.NewServer(indexSvc, ingestSvc, querySvc, healthSvc, cfg.Embedding.Dimensions, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
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

// providerProbe pairs a model provider with its name for startup checks.
type providerProbe struct {
	name string
	hc   interface {
		HealthCheck(ctx context.Context) error
	}
}

// probeProviders verifies every model provider responds before the
// HTTP server starts serving.
func probeProviders(ctx context.Context, probes []providerProbe) error {
	for _, p := range probes {
		if err := p.hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s provider unavailable: %w", p.name, err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
