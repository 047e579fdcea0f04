package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

// Config holds the eccnrag configuration shared by the server and the CLI.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Index      IndexConfig      `yaml:"index"`
	Cache      CacheConfig      `yaml:"cache"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Dataset    DatasetConfig    `yaml:"dataset"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// RetryConfig is the retry policy of one external call.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms"`
	TimeoutSec       int `yaml:"timeout_sec"`
}

// Policy converts the settings into a retry.Policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxAttempts:    r.MaxAttempts,
		InitialBackoff: time.Duration(r.InitialBackoffMs) * time.Millisecond,
		MaxBackoff:     time.Duration(r.MaxBackoffMs) * time.Millisecond,
		Timeout:        time.Duration(r.TimeoutSec) * time.Second,
	}
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string      `yaml:"provider"` // openai, local
	BaseURL             string      `yaml:"base_url"`
	APIKey              string      `yaml:"api_key"`
	Model               string      `yaml:"model"`
	Dimensions          int         `yaml:"dimensions"`
	DocumentInstruction string      `yaml:"document_instruction"`
	QueryInstruction    string      `yaml:"query_instruction"`
	BatchSize           int         `yaml:"batch_size"`
	Retry               RetryConfig `yaml:"retry"`
}

// GenerationConfig holds generative model settings.
type GenerationConfig struct {
	BaseURL     string      `yaml:"base_url"`
	APIKey      string      `yaml:"api_key"`
	Model       string      `yaml:"model"`
	Temperature float32     `yaml:"temperature"`
	MaxTokens   int         `yaml:"max_tokens"`
	Retry       RetryConfig `yaml:"retry"`
}

// IndexConfig holds index artifact and retrieval settings.
type IndexConfig struct {
	Dir  string `yaml:"dir"`
	TopK int    `yaml:"top_k"`
}

// CacheConfig holds embedding cache settings. No addrs disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// CorpusConfig points at the taxonomy corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// EvaluationConfig holds evaluation harness settings.
type EvaluationConfig struct {
	Dataset        string  `yaml:"dataset"`
	Output         string  `yaml:"output"`
	Workers        int     `yaml:"workers"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	StorePath      string  `yaml:"store_path"`
}

// DatasetConfig holds evaluation dataset generation settings.
type DatasetConfig struct {
	Output         string  `yaml:"output"`
	SampleSize     int     `yaml:"sample_size"`
	Seed           uint64  `yaml:"seed"`
	RequestsPerSec float64 `yaml:"requests_per_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}

	vec := domain.DefaultVectorConfig()
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = vec.Model
	}
	if c.Embedding.QueryInstruction == "" && c.Embedding.Model == vec.Model {
		c.Embedding.QueryInstruction = vec.QueryInstruction
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}
	if c.Embedding.Retry.MaxAttempts <= 0 {
		c.Embedding.Retry.MaxAttempts = 3
	}
	if c.Embedding.Retry.InitialBackoffMs <= 0 {
		c.Embedding.Retry.InitialBackoffMs = 200
	}
	if c.Embedding.Retry.MaxBackoffMs <= 0 {
		c.Embedding.Retry.MaxBackoffMs = 5000
	}
	if c.Embedding.Retry.TimeoutSec <= 0 {
		c.Embedding.Retry.TimeoutSec = 30
	}

	if c.Generation.BaseURL == "" {
		c.Generation.BaseURL = DefaultGenerationBaseURL
	}
	if c.Generation.Model == "" {
		c.Generation.Model = domain.DefaultGenerationModel
	}
	// Generation stays at most once unless configured otherwise.
	if c.Generation.Retry.MaxAttempts <= 0 {
		c.Generation.Retry.MaxAttempts = 1
	}
	if c.Generation.Retry.TimeoutSec <= 0 {
		c.Generation.Retry.TimeoutSec = 60
	}

	if c.Index.Dir == "" {
		c.Index.Dir = "data"
	}
	if c.Index.TopK <= 0 {
		c.Index.TopK = domain.DefaultTopK
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 30 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = "data/eccn.csv"
	}

	if c.Evaluation.Dataset == "" {
		c.Evaluation.Dataset = "data/eval_dataset.csv"
	}
	if c.Evaluation.Output == "" {
		c.Evaluation.Output = "data/eval_results.csv"
	}
	if c.Evaluation.Workers <= 0 {
		c.Evaluation.Workers = 4
	}

	if c.Dataset.Output == "" {
		c.Dataset.Output = c.Evaluation.Dataset
	}
	if c.Dataset.SampleSize <= 0 {
		c.Dataset.SampleSize = 200
	}
	if c.Dataset.Seed == 0 {
		c.Dataset.Seed = 42
	}
	if c.Dataset.RequestsPerSec <= 0 {
		c.Dataset.RequestsPerSec = 2
	}
}

// DefaultGenerationBaseURL is the OpenAI-compatible endpoint of the default generative model.
const DefaultGenerationBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// Embedding providers.
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"
)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Embedding.Provider {
	case ProviderOpenAI:
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for provider %q", ProviderOpenAI)
		}
	case ProviderLocal:
	default:
		return fmt.Errorf(
			"embedding.provider must be %q or %q, got %q",
			ProviderOpenAI, ProviderLocal, c.Embedding.Provider,
		)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", c.Generation.Temperature)
	}
	if c.Index.TopK > 100 {
		return fmt.Errorf("index.top_k must be at most 100, got %d", c.Index.TopK)
	}
	if c.Evaluation.RequestsPerSec < 0 {
		return fmt.Errorf("evaluation.requests_per_sec must not be negative")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
