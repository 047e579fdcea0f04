package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

func rateLimitedServer(retryAfter string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if retryAfter != "" {
			w.Header().Set("Retry-After", retryAfter)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit_error"},
		})
	}))
}

func waitHint(err error) time.Duration {
	var ra retry.RetryAfterer
	if !errors.As(err, &ra) {
		return 0
	}
	return ra.RetryAfter()
}

func TestGenerator_RateLimitCarriesRetryAfter(t *testing.T) {
	server := rateLimitedServer("7")
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), "x")
	if !errors.Is(err, domain.ErrRateLimited) || !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Fatalf("expected rate limited generation error, got %v", err)
	}
	if got := waitHint(err); got != 7*time.Second {
		t.Errorf("wait hint = %v, want 7s", got)
	}
	if retry.IsPermanent(err) {
		t.Error("429 must stay retryable")
	}
}

func TestEmbedder_RateLimitCarriesRetryAfter(t *testing.T) {
	server := rateLimitedServer("3")
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrRateLimited) || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected rate limited embedding error, got %v", err)
	}
	if got := waitHint(err); got != 3*time.Second {
		t.Errorf("wait hint = %v, want 3s", got)
	}
}

func TestEmbedder_RateLimitWithoutHeader(t *testing.T) {
	server := rateLimitedServer("")
	defer server.Close()

	_, err := newTestEmbedder(server.URL).Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := waitHint(err); got != 0 {
		t.Errorf("wait hint = %v, want none", got)
	}
}

func TestRetryPolicy_WaitsForProviderHint(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "slow down"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "ok"}}},
		})
	}))
	defer server.Close()

	gen := newTestGenerator(server.URL)
	start := time.Now()
	err := retry.Policy{MaxAttempts: 2}.Do(context.Background(), func(ctx context.Context) error {
		_, err := gen.Generate(ctx, "x")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("retried after %v, want at least the 1s hint", elapsed)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"seconds", "7", 7 * time.Second},
		{"padded seconds", " 2 ", 2 * time.Second},
		{"zero", "0", 0},
		{"negative", "-5", 0},
		{"empty", "", 0},
		{"garbage", "soon", 0},
		{"http date", now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseRetryAfter(tt.value, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
