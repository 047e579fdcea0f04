package indexing

import (
	"context"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
)

// Embedder vectorizes document texts. Batch support is picked up through domain.EmbedAll.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Saver persists a built snapshot (artifact.Store).
type Saver interface {
	Save(snap *snapshot.Snapshot) error
}
