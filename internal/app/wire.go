// Package app assembles the components shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/config"
	"github.com/kailas-cloud/eccnrag/internal/db"
	dbRedis "github.com/kailas-cloud/eccnrag/internal/db/redis"
	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/metrics"
	"github.com/kailas-cloud/eccnrag/internal/repository/embcache"
	"github.com/kailas-cloud/eccnrag/internal/retry"
	"github.com/kailas-cloud/eccnrag/internal/transport/local"
	openaiTransport "github.com/kailas-cloud/eccnrag/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/eccnrag/internal/usecase/embedding"
)

// EmbeddingModel returns the model name recorded in index manifests.
func EmbeddingModel(cfg config.EmbeddingConfig) string {
	if cfg.Provider == config.ProviderLocal {
		return local.ModelName(cfg.Dimensions)
	}
	return cfg.Model
}

// OpenCache connects to the embedding cache. It returns nil when no cache is configured.
func OpenCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	store, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}
	if err = store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}
	logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// Decoration configures the decorators wrapped around a base embedder.
type Decoration struct {
	Provider    string
	Model       string
	Retry       retry.Policy
	BatchSize   int
	Cache       db.KVStore // nil disables caching
	CacheTTL    time.Duration
	Instruction string
	Logger      *zap.Logger
}

// DecorateEmbedder wraps base in the decorator chain:
// base -> Resilient -> Cached -> Instrumented -> Instruction.
// The instruction is outermost, so cache keys include it.
func DecorateEmbedder(base domain.Embedder, d Decoration) domain.Embedder {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var embedder domain.Embedder = embeddinguc.NewResilientEmbedder(base, d.Retry)

	if d.Cache != nil {
		embedder = embcache.New(embedder, d.Cache, embcache.Options{
			Model:      d.Model,
			TTL:        d.CacheTTL,
			CacheTotal: metrics.EmbeddingCacheTotal,
			Logger:     logger,
		})
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, d.Provider, d.Model, logger).
		WithMaxBatchSize(d.BatchSize)

	if d.Instruction != "" {
		return domain.NewInstructionEmbedder(embedder, d.Instruction)
	}
	return embedder
}

// BuildEmbedder creates the configured provider and decorates it. cache may be nil.
func BuildEmbedder(
	cfg config.EmbeddingConfig,
	cache db.KVStore,
	cacheTTL time.Duration,
	instruction string,
	logger *zap.Logger,
) domain.Embedder {
	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderLocal:
		base = local.NewHashingEmbedder(cfg.Dimensions)
	default:
		base = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	}

	return DecorateEmbedder(base, Decoration{
		Provider:    cfg.Provider,
		Model:       EmbeddingModel(cfg),
		Retry:       cfg.Retry.Policy(),
		BatchSize:   cfg.BatchSize,
		Cache:       cache,
		CacheTTL:    cacheTTL,
		Instruction: instruction,
		Logger:      logger,
	})
}

// BuildGenerator creates the generative model client.
func BuildGenerator(cfg config.GenerationConfig, logger *zap.Logger) *openaiTransport.Generator {
	return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		Config: openaiTransport.Config{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Provider: config.ProviderOpenAI,
			Logger:   logger,
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

// EmbedderHealth adapts an embedder to a health check.
// Embedders without a HealthCheck method are reported healthy.
type EmbedderHealth struct {
	Embedder domain.Embedder
}

// HealthCheck probes the embedder.
func (h EmbedderHealth) HealthCheck(ctx context.Context) error {
	if hc, ok := h.Embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// CacheHealth adapts a database ping to a health check.
type CacheHealth struct {
	Store db.Pinger
}

// HealthCheck pings the cache.
func (h CacheHealth) HealthCheck(ctx context.Context) error {
	if err := h.Store.Ping(ctx); err != nil {
		return fmt.Errorf("cache health check: %w", err)
	}
	return nil
}
