package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects model token usage for a single request.
// The handler puts a pointer into the context before calling the service;
// embedders and generators add to it; the handler reads it for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
	generationCalls  int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.mu.Unlock()
}

// AddGeneration records one generation call and its tokens.
func (u *Usage) AddGeneration(tokens int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += tokens
	u.generationCalls++
	u.mu.Unlock()
}

// EmbeddingTokens returns the recorded embedding tokens.
func (u *Usage) EmbeddingTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens
}

// GenerationTokens returns the recorded generation tokens.
func (u *Usage) GenerationTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generationTokens
}

// GenerationCalls returns how many times the generative model was invoked.
func (u *Usage) GenerationCalls() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generationCalls
}
