package retrieval

import (
	"context"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
)

// Embedder vectorizes query text. Query instructions are applied by the caller's decorator.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Loader reads a persisted snapshot (artifact.Store).
type Loader interface {
	Load() (*snapshot.Snapshot, error)
}
