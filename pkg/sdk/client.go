package eccnrag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/app"
	"github.com/kailas-cloud/eccnrag/internal/db"
	dbRedis "github.com/kailas-cloud/eccnrag/internal/db/redis"
	"github.com/kailas-cloud/eccnrag/internal/domain"
	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
	"github.com/kailas-cloud/eccnrag/internal/repository/artifact"
	"github.com/kailas-cloud/eccnrag/internal/retry"
	"github.com/kailas-cloud/eccnrag/internal/transport/local"
	openaiTransport "github.com/kailas-cloud/eccnrag/internal/transport/openai"
	classifyuc "github.com/kailas-cloud/eccnrag/internal/usecase/classify"
	decisionuc "github.com/kailas-cloud/eccnrag/internal/usecase/decision"
	healthuc "github.com/kailas-cloud/eccnrag/internal/usecase/health"
	retrievaluc "github.com/kailas-cloud/eccnrag/internal/usecase/retrieval"
)

const (
	defaultIndexDir          = "data"
	defaultReadinessTimeout  = 10 * time.Second
	defaultCacheTTL          = 30 * 24 * time.Hour
	geminiBaseURL            = "https://generativelanguage.googleapis.com/v1beta/openai/"
	embeddingRequestTimeout  = 30 * time.Second
	generationRequestTimeout = 60 * time.Second
)

// Internal interfaces for substitution in tests.
type retrievalUseCase interface {
	Matches(ctx context.Context, query string, topK int) ([]snapshot.Match, error)
	Reload(ctx context.Context) error
	Snapshot() *snapshot.Snapshot
}

type classifyUseCase interface {
	Classify(ctx context.Context, text string) (domdec.Decision, error)
}

// Client is the eccnrag SDK entry point. It is safe for concurrent use.
type Client struct {
	cache      db.Store
	retrieval  retrievalUseCase
	classifier classifyUseCase
	healthSvc  healthUseCase
	topK       int
	obs        *observer
}

// New creates a Client and loads the index. The provided context is used for
// the initial cache readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		indexDir:           defaultIndexDir,
		topK:               domain.DefaultTopK,
		generationAttempts: 1,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.embedding == embeddingUnset {
		return nil, errors.New(
			"eccnrag: embedder required (use WithOpenAIEmbedding, WithLocalEmbedding or WithEmbedder)",
		)
	}
	if cfg.generator == nil && cfg.generationBaseURL == "" {
		return nil, errors.New("eccnrag: generator required (use WithGemini, WithOpenAIGeneration or WithGenerator)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var cache db.Store
	if len(cfg.cacheAddrs) > 0 {
		cache, err = createCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	c, err := wireClient(ctx, cfg, cache, obs)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, err
	}
	return c, nil
}

func createCache(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.cacheAddrs,
		Password: cfg.cachePassword,
	})
	if err != nil {
		return nil, fmt.Errorf("eccnrag: create cache store: %w", err)
	}
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("eccnrag: cache not ready: %w", err)
	}
	return s, nil
}

func wireClient(ctx context.Context, cfg *clientConfig, cache db.Store, obs *observer) (*Client, error) {
	logger := zap.NewNop()

	base, provider, model := baseEmbedder(cfg, logger)
	instruction := cfg.queryInstruction
	vec := domain.DefaultVectorConfig()
	if instruction == "" && cfg.embedding == embeddingOpenAI && model == vec.Model {
		instruction = vec.QueryInstruction
	}

	var kv db.KVStore
	if cache != nil {
		kv = cache
	}
	embedder := app.DecorateEmbedder(base, app.Decoration{
		Provider: provider,
		Model:    model,
		Retry: retry.Policy{
			MaxAttempts:    3,
			InitialBackoff: 200 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Timeout:        embeddingRequestTimeout,
		},
		Cache:       kv,
		CacheTTL:    defaultCacheTTL,
		Instruction: instruction,
		Logger:      logger,
	})

	var gen decisionuc.Generator
	var genHealth healthuc.Checker
	if cfg.generator != nil {
		gen = &generatorAdapter{inner: cfg.generator}
	} else {
		g := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			Config: openaiTransport.Config{
				APIKey:   cfg.generationAPIKey,
				BaseURL:  cfg.generationBaseURL,
				Model:    cfg.generationModel,
				Provider: "openai",
				Logger:   logger,
			},
		})
		gen, genHealth = g, g
	}

	retrieval := retrievaluc.New(embedder, artifact.NewStore(cfg.indexDir), model, logger)
	if err := retrieval.Reload(ctx); err != nil {
		return nil, fmt.Errorf("eccnrag: load index: %w", err)
	}

	engine := decisionuc.New(gen, retry.Policy{
		MaxAttempts:    cfg.generationAttempts,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Timeout:        generationRequestTimeout,
	}, logger)

	healthOpts := []healthuc.Option{healthuc.WithEmbedding(app.EmbedderHealth{Embedder: embedder})}
	if genHealth != nil {
		healthOpts = append(healthOpts, healthuc.WithGeneration(genHealth))
	}
	if cache != nil {
		healthOpts = append(healthOpts, healthuc.WithCache(app.CacheHealth{Store: cache}))
	}

	return &Client{
		cache:      cache,
		retrieval:  retrieval,
		classifier: classifyuc.New(retrieval, engine, cfg.topK),
		healthSvc:  healthuc.New(retrieval, healthOpts...),
		topK:       cfg.topK,
		obs:        obs,
	}, nil
}

// baseEmbedder returns the undecorated embedder with its provider and model names.
func baseEmbedder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, string, string) {
	switch cfg.embedding {
	case embeddingLocal:
		return local.NewHashingEmbedder(cfg.dimensions), local.Provider, local.ModelName(cfg.dimensions)
	case embeddingOpenAI:
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.embeddingAPIKey,
			BaseURL:    cfg.embeddingBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
			Logger:     logger,
		}), "openai", cfg.embeddingModel
	default:
		return &embedderAdapter{inner: cfg.embedder}, "custom", ""
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Classify retrieves candidates for text and asks the model to choose one.
// A blank text returns ErrEmptyQuery. Unusable model output is reported as an
// abstention with Outcome "unparsed", not as an error.
func (c *Client) Classify(ctx context.Context, text string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("classify", start, err, "outcome", res.Outcome) }()

	ctx, usage := domain.NewContextWithUsage(ctx)
	d, err := c.classifier.Classify(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("classify: %w", err)
	}
	c.obs.decision(string(d.Outcome()))

	return Result{
		PredictedECN:     d.PredictedCode(),
		Reason:           d.Reason(),
		Candidates:       d.Candidates(),
		Outcome:          string(d.Outcome()),
		InCandidates:     d.InCandidates(),
		RawOutput:        d.RawOutput(),
		EmbeddingTokens:  usage.EmbeddingTokens(),
		GenerationTokens: usage.GenerationTokens(),
	}, nil
}

// Retrieve returns up to k taxonomy entries nearest to text, closest first.
// k <= 0 uses the client's top-k.
func (c *Client) Retrieve(ctx context.Context, text string, k int) (_ []Candidate, err error) {
	start := time.Now()
	defer func() { c.obs.observe("retrieve", start, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		k = c.topK
	}

	matches, err := c.retrieval.Matches(ctx, text, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	out := make([]Candidate, len(matches))
	for i, m := range matches {
		out[i] = Candidate{Code: m.Document.Code(), Text: m.Document.Text(), Distance: m.Distance}
	}
	return out, nil
}

// Reload re-reads the index artifacts and swaps them in. On failure the current index stays.
func (c *Client) Reload(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err) }()

	if err = c.retrieval.Reload(ctx); err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	return nil
}

// Index describes the index currently served. ok is false before any index is loaded.
func (c *Client) Index() (info IndexInfo, ok bool) {
	snap := c.retrieval.Snapshot()
	if snap == nil {
		return IndexInfo{}, false
	}
	m := snap.Manifest()
	return IndexInfo{
		BuildID:    m.BuildID,
		Model:      m.Model,
		Dimensions: m.Dimensions,
		Documents:  m.Count,
		BuiltAt:    m.BuiltAt,
	}, true
}
