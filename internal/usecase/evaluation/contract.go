package evaluation

import (
	"context"
	"time"

	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	domeval "github.com/kailas-cloud/eccnrag/internal/domain/evaluation"
)

// Retriever returns the nearest taxonomy documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]document.Document, error)
}

// Decider turns candidates into a decision.
type Decider interface {
	Decide(ctx context.Context, query string, candidates []document.Document) (domdec.Decision, error)
}

// RunStore persists runs and their rows (evalstore.Store).
type RunStore interface {
	BeginRun(ctx context.Context, r domeval.Run) error
	SaveRecord(ctx context.Context, runID string, seq int, rec domeval.Record) error
	FinishRun(ctx context.Context, runID string, sum domeval.Summary, finishedAt time.Time) error
}
