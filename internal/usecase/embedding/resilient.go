package embedding

import (
	"context"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

// ResilientEmbedder retries provider calls under a retry policy.
// Embedding calls are idempotent, so transient failures are safe to repeat.
type ResilientEmbedder struct {
	inner  domain.Embedder
	policy retry.Policy
}

// NewResilientEmbedder wraps inner with policy.
func NewResilientEmbedder(inner domain.Embedder, policy retry.Policy) *ResilientEmbedder {
	return &ResilientEmbedder{inner: inner, policy: policy}
}

// Embed implements domain.Embedder.
func (r *ResilientEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var out domain.EmbeddingResult
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		res, err := r.inner.Embed(ctx, text)
		if err != nil {
			return err //nolint:wrapcheck // wrapped by the caller chain
		}
		out = res
		return nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // retry adds attempt context
	}
	return out, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (r *ResilientEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var out domain.BatchEmbeddingResult
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		res, err := domain.EmbedAll(ctx, r.inner, texts)
		if err != nil {
			return err //nolint:wrapcheck // wrapped by the caller chain
		}
		out = res
		return nil
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // retry adds attempt context
	}
	return out, nil
}

// HealthCheck forwards to the inner embedder without retries.
func (r *ResilientEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
