package eccnrag

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// embeddingMode selects how query vectors are produced.
type embeddingMode int

const (
	embeddingUnset embeddingMode = iota
	embeddingCustom
	embeddingOpenAI
	embeddingLocal
)

type clientConfig struct {
	indexDir string
	topK     int

	embedding        embeddingMode
	embedder         Embedder
	embeddingBaseURL string
	embeddingAPIKey  string
	embeddingModel   string
	dimensions       int
	queryInstruction string

	generator          Generator
	generationBaseURL  string
	generationAPIKey   string
	generationModel    string
	generationAttempts int

	cacheAddrs    []string
	cachePassword string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithIndexDir sets the directory holding the index artifacts. Default: "data".
func WithIndexDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexDir = dir
	})
}

// WithTopK sets how many candidates are retrieved per query. Default: 5.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithEmbedder sets a custom query embedder.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedding = embeddingCustom
		c.embedder = e
	})
}

// WithOpenAIEmbedding embeds queries through an OpenAI-compatible embeddings endpoint
// (TEI, vLLM, Ollama, OpenAI). The bge query instruction is applied for the default model.
func WithOpenAIEmbedding(baseURL, apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedding = embeddingOpenAI
		c.embeddingBaseURL = baseURL
		c.embeddingAPIKey = apiKey
		c.embeddingModel = model
		c.dimensions = dimensions
	})
}

// WithLocalEmbedding uses the offline feature-hashing embedder.
// Only indexes built with `provider: local` and the same width match it.
func WithLocalEmbedding(dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedding = embeddingLocal
		c.dimensions = dimensions
	})
}

// WithQueryInstruction overrides the prefix prepended to every query before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryInstruction = instruction
	})
}

// WithGenerator sets a custom generative model.
func WithGenerator(g Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithOpenAIGeneration uses an OpenAI-compatible chat completions endpoint.
func WithOpenAIGeneration(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationBaseURL = baseURL
		c.generationAPIKey = apiKey
		c.generationModel = model
	})
}

// WithGemini uses Gemini through its OpenAI-compatible endpoint.
func WithGemini(apiKey, model string) Option {
	return WithOpenAIGeneration(geminiBaseURL, apiKey, model)
}

// WithGenerationAttempts sets how many times one decision may call the model.
// Default: 1.
func WithGenerationAttempts(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.generationAttempts = n
	})
}

// WithRedisCache caches query embeddings in Redis or Valkey.
func WithRedisCache(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
