// Package evaluation scores the retrieve-then-decide pipeline over a labeled dataset.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	domeval "github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
	"github.com/kailas-cloud/eccnrag/internal/metrics"
)

const progressEvery = 25

// Options configures a harness.
type Options struct {
	TopK           int
	Workers        int
	RequestsPerSec float64 // 0 disables throttling
	Dataset        string
	BuildID        string
	Model          string
}

// Result is a finished run with its records in dataset order.
type Result struct {
	Run     domeval.Run
	Records []domeval.Record
}

// Harness runs the pipeline row by row. A failing row is recorded and never aborts the run.
type Harness struct {
	retriever Retriever
	decider   Decider
	store     RunStore
	opts      Options
	logger    *zap.Logger
}

// New creates a harness. TopK <= 0 uses domain.DefaultTopK; Workers <= 0 runs rows sequentially.
func New(retriever Retriever, decider Decider, opts Options, logger *zap.Logger) *Harness {
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{retriever: retriever, decider: decider, opts: opts, logger: logger}
}

// WithStore records the run and every row in s.
func (h *Harness) WithStore(s RunStore) *Harness {
	h.store = s
	return h
}

// Run evaluates samples and aggregates the summary.
// It fails only when ctx ends or the run store rejects a write.
func (h *Harness) Run(ctx context.Context, samples []domeval.Sample) (Result, error) {
	run := domeval.Run{
		ID:        uuid.NewString(),
		Dataset:   h.opts.Dataset,
		BuildID:   h.opts.BuildID,
		Model:     h.opts.Model,
		K:         h.opts.TopK,
		StartedAt: time.Now().UTC(),
	}
	if h.store != nil {
		if err := h.store.BeginRun(ctx, run); err != nil {
			return Result{}, fmt.Errorf("begin run: %w", err)
		}
	}

	h.logger.Info("Evaluation started",
		zap.String("run_id", run.ID),
		zap.Int("samples", len(samples)),
		zap.Int("top_k", h.opts.TopK),
		zap.Int("workers", h.opts.Workers),
	)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if h.opts.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.opts.RequestsPerSec), 1)
	}

	records := make([]domeval.Record, len(samples))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Workers)
	for i, s := range samples {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return fmt.Errorf("throttle row %d: %w", i, err)
			}

			rec := h.evaluate(gctx, s)
			records[i] = rec
			metrics.EvalRowsTotal.WithLabelValues(string(rec.Outcome())).Inc()

			if h.store != nil {
				if err := h.store.SaveRecord(gctx, run.ID, i, rec); err != nil {
					return fmt.Errorf("save row %d: %w", i, err)
				}
			}
			if n := done.Add(1); n%progressEvery == 0 {
				h.logger.Info("Evaluation progress", zap.Int64("done", n), zap.Int("total", len(samples)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("run %s: %w", run.ID, err)
	}

	run.Summary = domeval.Summarize(records, h.opts.TopK)
	run.FinishedAt = time.Now().UTC()
	if h.store != nil {
		if err := h.store.FinishRun(ctx, run.ID, run.Summary, run.FinishedAt); err != nil {
			return Result{}, fmt.Errorf("finish run: %w", err)
		}
	}

	h.logger.Info("Evaluation finished",
		zap.String("run_id", run.ID),
		zap.Float64("exact_match", run.Summary.ExactMatch),
		zap.Float64("recall_at_k", run.Summary.RecallAtK),
		zap.Int("errors", run.Summary.Errors),
		zap.Duration("duration", run.FinishedAt.Sub(run.StartedAt)),
	)
	return Result{Run: run, Records: records}, nil
}

func (h *Harness) evaluate(ctx context.Context, s domeval.Sample) domeval.Record {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return domeval.NewFailedRecord(s, nil, domain.ErrEmptyQuery)
	}

	candidates, err := h.retriever.Retrieve(ctx, query, h.opts.TopK)
	if err != nil {
		h.logger.Warn("Row retrieval failed", zap.String("true_ecn", s.TrueCode), zap.Error(err))
		return domeval.NewFailedRecord(s, nil, err)
	}

	d, err := h.decider.Decide(ctx, query, candidates)
	if err != nil {
		h.logger.Warn("Row decision failed", zap.String("true_ecn", s.TrueCode), zap.Error(err))
		return domeval.NewFailedRecord(s, document.Codes(candidates), err)
	}
	return domeval.NewRecord(s, d)
}
