// Package dataset synthesizes labeled evaluation queries by rewriting taxonomy descriptions.
package dataset

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
	"github.com/kailas-cloud/eccnrag/internal/domain/taxonomy"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

// Defaults.
const (
	DefaultSampleSize     = 200
	DefaultSeed           = 42
	DefaultRequestsPerSec = 2.0
)

// Options configures generation.
type Options struct {
	SampleSize     int
	Seed           uint64
	RequestsPerSec float64
}

// Service produces evaluation samples one model call per sampled row.
type Service struct {
	gen     Generator
	policy  retry.Policy
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a dataset generator. Zero options take the package defaults.
func New(gen Generator, policy retry.Policy, opts Options, logger *zap.Logger) *Service {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = DefaultRequestsPerSec
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		gen:     gen,
		policy:  policy,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
		logger:  logger,
	}
}

// Sample picks up to n leaf entries using a generator seeded with seed.
// The same entries, n and seed always give the same rows in the same order.
func Sample(entries []taxonomy.Entry, n int, seed uint64) []taxonomy.Entry {
	leaves := taxonomy.Leaves(entries)
	if n > len(leaves) {
		n = len(leaves)
	}
	r := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // reproducible sampling, not security
	perm := r.Perm(len(leaves))

	out := make([]taxonomy.Entry, n)
	for i := range n {
		out[i] = leaves[perm[i]]
	}
	return out
}

// Generate samples rows and rewrites each description into a product-style query.
// Rows with an empty description are skipped; a failed rewrite is logged and skipped.
// When ctx ends, the rows produced so far are returned with the context error.
func (s *Service) Generate(ctx context.Context, entries []taxonomy.Entry) ([]evaluation.Generated, error) {
	sampled := Sample(entries, s.opts.SampleSize, s.opts.Seed)
	out := make([]evaluation.Generated, 0, len(sampled))
	var skipped, failed int

	for _, e := range sampled {
		desc := strings.TrimSpace(e.Description)
		if desc == "" {
			skipped++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return out, fmt.Errorf("throttle: %w", err)
		}

		query, err := s.rewrite(ctx, desc)
		if err != nil {
			if ctx.Err() != nil {
				return out, fmt.Errorf("rewrite %s: %w", e.Code, ctx.Err())
			}
			failed++
			s.logger.Warn("Rewrite failed", zap.String("ecn", e.Code), zap.Error(err))
			continue
		}

		out = append(out, evaluation.Generated{Query: query, TrueCode: e.Code, SourceDescription: desc})
		s.logger.Debug("Generated sample", zap.String("ecn", e.Code))
	}

	s.logger.Info("Dataset generated",
		zap.Int("sampled", len(sampled)),
		zap.Int("generated", len(out)),
		zap.Int("skipped_empty", skipped),
		zap.Int("failed", failed),
	)
	return out, nil
}

func (s *Service) rewrite(ctx context.Context, desc string) (string, error) {
	var text string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		res, err := s.gen.Generate(ctx, BuildRewritePrompt(desc))
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		text = strings.TrimSpace(res.Text)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if text == "" {
		return "", fmt.Errorf("empty rewrite")
	}
	return text, nil
}
