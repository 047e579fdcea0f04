// Package local provides an offline embedder for development and tests.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

// DefaultDimensions is the vector width used when none is configured.
const DefaultDimensions = 256

// Provider is the provider name reported for the local embedder.
const Provider = "local"

// ModelName is the model name recorded in manifests of indexes built by a hashing embedder.
func ModelName(dimensions int) string {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return fmt.Sprintf("%s-hash-%d", Provider, dimensions)
}

// HashingEmbedder maps texts to L2-normalized bag-of-words vectors using feature hashing.
// It is deterministic, needs no vocabulary and no network.
type HashingEmbedder struct {
	dimensions   int
	tokenPattern *regexp.Regexp
}

// NewHashingEmbedder creates an embedder producing vectors of the given width.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &HashingEmbedder{
		dimensions:   dimensions,
		tokenPattern: regexp.MustCompile(`[\p{L}\p{N}]+`),
	}
}

// Dimensions returns the vector width.
func (e *HashingEmbedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Token usage is reported as the token count.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err //nolint:wrapcheck // caller's cancellation
	}
	vec, n := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: n, TotalTokens: n}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *HashingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // caller's cancellation
		}
		vec, n := e.vector(t)
		out.Embeddings[i] = vec
		out.PromptTokens += n
		out.TotalTokens += n
	}
	return out, nil
}

// HealthCheck always succeeds.
func (e *HashingEmbedder) HealthCheck(context.Context) error { return nil }

func (e *HashingEmbedder) vector(text string) ([]float32, int) {
	acc := make([]float64, e.dimensions)
	tokens := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		// high bit picks the sign so collisions tend to cancel
		if sum>>63 == 1 {
			acc[bucket]--
		} else {
			acc[bucket]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dimensions)
	if norm == 0 {
		return vec, len(tokens)
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, len(tokens)
}
