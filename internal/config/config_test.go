package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

func validConfig() Config {
	cfg := Config{
		Embedding: EmbeddingConfig{Provider: ProviderLocal},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8000 {
		t.Errorf("http.port = %d", cfg.HTTP.Port)
	}
	if cfg.Index.TopK != domain.DefaultTopK {
		t.Errorf("index.top_k = %d", cfg.Index.TopK)
	}
	if cfg.Embedding.Model != domain.DefaultVectorConfig().Model {
		t.Errorf("embedding.model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.QueryInstruction == "" {
		t.Error("default model must get its query instruction")
	}
	if cfg.Generation.Retry.MaxAttempts != 1 {
		t.Errorf("generation must default to a single attempt, got %d", cfg.Generation.Retry.MaxAttempts)
	}
	if cfg.Dataset.SampleSize != 200 || cfg.Dataset.Seed != 42 || cfg.Dataset.RequestsPerSec != 2 {
		t.Errorf("dataset = %+v", cfg.Dataset)
	}
	if cfg.Dataset.Output != cfg.Evaluation.Dataset {
		t.Errorf("dataset.output = %q, want evaluation dataset path", cfg.Dataset.Output)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
}

func TestApplyDefaults_CustomModelHasNoInstruction(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Model: "text-embedding-3-small"}}
	cfg.ApplyDefaults()
	if cfg.Embedding.QueryInstruction != "" {
		t.Errorf("query_instruction = %q, want empty for a custom model", cfg.Embedding.QueryInstruction)
	}
}

func TestRetryConfig_Policy(t *testing.T) {
	p := RetryConfig{MaxAttempts: 4, InitialBackoffMs: 100, MaxBackoffMs: 800, TimeoutSec: 5}.Policy()
	if p.MaxAttempts != 4 || p.InitialBackoff != 100*time.Millisecond ||
		p.MaxBackoff != 800*time.Millisecond || p.Timeout != 5*time.Second {
		t.Errorf("policy = %+v", p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid local", func(*Config) {}, ""},
		{"valid openai", func(c *Config) {
			c.Embedding.Provider = ProviderOpenAI
			c.Embedding.BaseURL = "http://localhost:8080/v1"
		}, ""},
		{"openai without base url", func(c *Config) { c.Embedding.Provider = ProviderOpenAI },
			`embedding.base_url is required for provider "openai"`},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "faiss" },
			`embedding.provider must be "openai" or "local", got "faiss"`},
		{"bad port", func(c *Config) { c.HTTP.Port = 70000 },
			"http.port must be between 1 and 65535, got 70000"},
		{"bad temperature", func(c *Config) { c.Generation.Temperature = 3 },
			"generation.temperature must be between 0 and 2, got 3"},
		{"huge top_k", func(c *Config) { c.Index.TopK = 500 },
			"index.top_k must be at most 100, got 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.wantErr {
				t.Errorf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ECCNRAG_TEST_KEY", "sk-123")

	in := "api_key: ${ECCNRAG_TEST_KEY}\nmodel: ${ECCNRAG_TEST_UNSET:-bge}\nempty: ${ECCNRAG_TEST_UNSET}"
	got := string(expandEnvVars([]byte(in)))
	want := "api_key: sk-123\nmodel: bge\nempty: "
	if got != want {
		t.Errorf("expandEnvVars() = %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("ECCNRAG_TEST_GEN_KEY", "gem-key")
	path := filepath.Join(t.TempDir(), "test.yaml")
	yml := strings.Join([]string{
		"http:",
		"  port: 9090",
		"embedding:",
		"  provider: local",
		"  dimensions: 256",
		"generation:",
		"  api_key: ${ECCNRAG_TEST_GEN_KEY}",
		"  retry:",
		"    max_attempts: 2",
		"cache:",
		"  addrs: [\"localhost:6379\"]",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Embedding.Dimensions != 256 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Generation.APIKey != "gem-key" || cfg.Generation.Retry.MaxAttempts != 2 {
		t.Errorf("generation = %+v", cfg.Generation)
	}
	if !cfg.Cache.Enabled() {
		t.Error("cache should be enabled")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("embedding:\n  provider: faiss\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Fatalf("expected invalid config error, got %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if GetEnv() != "local" {
		t.Errorf("GetEnv() = %q", GetEnv())
	}
	t.Setenv("ENV", "prod")
	if GetEnv() != "prod" {
		t.Errorf("GetEnv() = %q", GetEnv())
	}
}
