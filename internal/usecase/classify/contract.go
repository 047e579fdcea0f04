package classify

import (
	"context"

	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
)

// Retriever returns the nearest taxonomy documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]document.Document, error)
}

// Decider turns candidates into a decision.
type Decider interface {
	Decide(ctx context.Context, query string, candidates []document.Document) (domdec.Decision, error)
}
