package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/config"
	logpkg "github.com/kailas-cloud/eccnrag/internal/logger"
	"github.com/kailas-cloud/eccnrag/internal/metrics"
	"github.com/kailas-cloud/eccnrag/internal/repository/artifact"
	chiTransport "github.com/kailas-cloud/eccnrag/internal/transport/chi"
	classifyuc "github.com/kailas-cloud/eccnrag/internal/usecase/classify"
	decisionuc "github.com/kailas-cloud/eccnrag/internal/usecase/decision"
	healthuc "github.com/kailas-cloud/eccnrag/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/eccnrag/internal/usecase/retrieval"
	"github.com/kailas-cloud/eccnrag/internal/version"
)

func main() {
	// A missing .env is fine; real deployments pass env vars directly.
	_ = godotenv.Load()

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

	logger.Info("Starting eccnrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_dir", cfg.Index.Dir),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("generation_model", cfg.Generation.Model),
	)

	metrics.RegisterAll()

	ctx := context.Background()

	cache, err := app.OpenCache(ctx, cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to open embedding cache", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
	}

	queryEmbedder := app.BuildEmbedder(
		cfg.Embedding, cache, time.Duration(cfg.Cache.TTLSec)*time.Second,
		cfg.Embedding.QueryInstruction, logger,
	)
	generator := app.BuildGenerator(cfg.Generation, logger)

	artifacts := artifact.NewStore(cfg.Index.Dir)
	retrieval := retrievaluc.New(queryEmbedder, artifacts, app.EmbeddingModel(cfg.Embedding), logger)
	if err = retrieval.Reload(ctx); err != nil {
		// Serve anyway: /health reports the missing index and /classify answers 503.
		logger.Error("Index not loaded", zap.String("dir", artifacts.Dir()), zap.Error(err))
	}

	decider := decisionuc.New(generator, cfg.Generation.Retry.Policy(), logger)
	classifier := classifyuc.New(retrieval, decider, cfg.Index.TopK)

	healthOpts := []healthuc.Option{
		healthuc.WithEmbedding(app.EmbedderHealth{Embedder: queryEmbedder}),
		healthuc.WithGeneration(generator),
	}
	if cache != nil {
		healthOpts = append(healthOpts, healthuc.WithCache(app.CacheHealth{Store: cache}))
	}
	healthSvc := healthuc.New(retrieval, healthOpts...)

	server := chiTransport.NewServer(classifier, healthSvc, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	waitForShutdown(ctx, retrieval, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// waitForShutdown blocks until SIGINT or SIGTERM. SIGHUP reloads the index.
func waitForShutdown(ctx context.Context, retrieval *retrievaluc.Service, logger *zap.Logger) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sig)

	for s := range sig {
		if s != syscall.SIGHUP {
			logger.Info("Received shutdown signal", zap.String("signal", s.String()))
			return
		}
		logger.Info("Received SIGHUP, reloading index")
		// Reload logs its own failure and keeps the current index.
		_ = retrieval.Reload(ctx)
	}
}
