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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/chunker"
	"github.com/kailas-cloud/docdex/internal/config"
	dbRedis "github.com/kailas-cloud/docdex/internal/db/redis"
	"github.com/kailas-cloud/docdex/internal/docsource"
	"github.com/kailas-cloud/docdex/internal/domain"
	"github.com/kailas-cloud/docdex/internal/interaction"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/repository/embcache"
	"github.com/kailas-cloud/docdex/internal/repository/index"
	chiTransport "github.com/kailas-cloud/docdex/internal/transport/chi"
	"github.com/kailas-cloud/docdex/internal/transport/groq"
	openaiEmb "github.com/kailas-cloud/docdex/internal/transport/openai"
	"github.com/kailas-cloud/docdex/internal/transport/rerank"
	answeruc "github.com/kailas-cloud/docdex/internal/usecase/answer"
	ingestuc "github.com/kailas-cloud/docdex/internal/usecase/ingest"
	rerankuc "github.com/kailas-cloud/docdex/internal/usecase/rerank"
	"github.com/kailas-cloud/docdex/internal/version"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

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

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
	)

	for _, dir := range []string{cfg.Paths.VectorStoreDir, cfg.Paths.UploadDir, cfg.Paths.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.String("dir", dir), zap.Error(err))
		}
	}

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	tok, err := chunker.NewTiktokenTokenizer(cfg.Chunking.Encoding)
	if err != nil {
		logger.Fatal("Failed to load tokenizer", zap.Error(err))
	}
	chunk, err := chunker.New(tok, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		logger.Fatal("Invalid chunking configuration", zap.Error(err))
	}

	// Optional embedding cache store
	var cacheStore *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		if err := cacheStore.WaitForReady(context.Background(), 10*time.Second); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	docEmbedder := buildEmbedder(cfg, cfg.Embedding.DocumentInstruction, cacheStore, logger)
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, cacheStore, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	store := index.New(cfg.Paths.VectorStoreDir)
	defer store.Close()

	generator := groq.New(&groq.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
		Logger:      logger,
	})

	scorer := rerank.New(&rerank.Config{
		BaseURL: cfg.Rerank.BaseURL,
		Model:   cfg.Rerank.Model,
		APIKey:  cfg.Rerank.APIKey,
		Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
		Logger:  logger,
	})

	ingestSvc := ingestuc.New(chunk, docEmbedder, store, logger)
	rerankSvc := rerankuc.New(scorer)
	answerSvc := answeruc.New(
		queryEmbedder, store, rerankSvc, generator,
		cfg.Retrieval.K, cfg.Retrieval.TopK, logger,
	)

	loader := docsource.New(cfg.Paths.UploadDir, logger)
	recorder := interaction.New(cfg.Paths.LogsDir, logger)

	server := chiTransport.NewServer(
		ingestSvc, answerSvc, loader, recorder, cfg.Paths.UploadDir, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction
func buildEmbedder(
	cfg config.Config,
	instruction string,
	cacheStore *dbRedis.Store,
	logger *zap.Logger,
) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cacheStore != nil {
		embedder = embcache.New(base, cacheStore, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
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
						"error": "internal error",
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
