// Package decision turns retrieved candidates into a classification with a single,
// tightly constrained generative model call.
package decision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	"github.com/kailas-cloud/eccnrag/internal/metrics"
	"github.com/kailas-cloud/eccnrag/internal/retry"
)

// Engine owns the empty-candidates gate, the prompt and the response grammar.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	gen    Generator
	policy retry.Policy
	logger *zap.Logger
}

// New creates an engine. policy governs the model call; retry.Once keeps it at most once.
func New(gen Generator, policy retry.Policy, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{gen: gen, policy: policy, logger: logger}
}

// Decide classifies query against candidates (rank order).
// With no candidates it abstains without calling the model. A model failure is returned
// as an error, never folded into an abstention.
func (e *Engine) Decide(ctx context.Context, query string, candidates []document.Document) (domdec.Decision, error) {
	if len(candidates) == 0 {
		metrics.DecisionsTotal.WithLabelValues(string(domdec.OutcomeNoCandidates)).Inc()
		return domdec.NoCandidates(), nil
	}

	prompt := BuildPrompt(query, candidates)

	start := time.Now()
	var res domain.GenerationResult
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		r, err := e.gen.Generate(ctx, prompt)
		if err != nil {
			return err //nolint:wrapcheck // wrapped below
		}
		res = r
		return nil
	})
	if err != nil {
		metrics.DecisionsTotal.WithLabelValues("error").Inc()
		return domdec.Decision{}, fmt.Errorf("generate decision: %w", err)
	}

	domain.UsageFromContext(ctx).AddGeneration(res.PromptTokens + res.CompletionTokens)

	raw := strings.TrimSpace(res.Text)
	d := domdec.FromResponse(Parse(raw), raw, document.Codes(candidates))
	metrics.DecisionsTotal.WithLabelValues(string(d.Outcome())).Inc()

	if d.Outcome() == domdec.OutcomeUnparsed {
		e.logger.Warn("Model response has no ECCN line",
			zap.Int("response_len", len(raw)),
			zap.Int("candidates", len(candidates)),
		)
	}
	e.logger.Debug("Decision made",
		zap.String("predicted", d.PredictedCode()),
		zap.String("outcome", string(d.Outcome())),
		zap.Bool("in_candidates", d.InCandidates()),
		zap.Duration("duration", time.Since(start)),
	)
	return d, nil
}
