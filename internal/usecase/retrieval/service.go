// Package retrieval serves nearest-neighbor lookups over the current index snapshot.
package retrieval

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
	"github.com/kailas-cloud/eccnrag/internal/metrics"
)

// Service encodes queries and searches the snapshot currently being served.
// The snapshot is replaced atomically; searches already running keep the old one.
type Service struct {
	embed   Embedder
	loader  Loader
	model   string
	current atomic.Pointer[snapshot.Snapshot]
	logger  *zap.Logger
}

// New creates a retrieval service. loader may be nil when snapshots are only swapped in directly.
// model is the configured embedding model, compared against the model recorded in each snapshot.
func New(embed Embedder, loader Loader, model string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, loader: loader, model: model, logger: logger}
}

// Snapshot returns the snapshot being served, nil before the first load.
func (s *Service) Snapshot() *snapshot.Snapshot {
	return s.current.Load()
}

// Swap publishes snap and returns the previous snapshot.
func (s *Service) Swap(snap *snapshot.Snapshot) *snapshot.Snapshot {
	old := s.current.Swap(snap)
	if snap != nil {
		metrics.IndexDocuments.Set(float64(snap.Len()))
	}
	return old
}

// Reload loads the artifacts and swaps them in. On failure the current snapshot stays.
func (s *Service) Reload(_ context.Context) error {
	if s.loader == nil {
		return fmt.Errorf("reload: no artifact loader configured")
	}

	snap, err := s.loader.Load()
	if err != nil {
		metrics.IndexReloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Index reload failed, keeping current snapshot", zap.Error(err))
		return fmt.Errorf("load artifacts: %w", err)
	}

	m := snap.Manifest()
	if s.model != "" && m.Model != "" && m.Model != s.model {
		s.logger.Warn("Index was built with a different embedding model",
			zap.String("index_model", m.Model),
			zap.String("configured_model", s.model),
		)
	}

	old := s.Swap(snap)
	metrics.IndexReloadsTotal.WithLabelValues("success").Inc()

	fields := []zap.Field{
		zap.String("build_id", m.BuildID),
		zap.Int("documents", m.Count),
		zap.Int("dimensions", m.Dimensions),
	}
	if old != nil {
		fields = append(fields, zap.String("previous_build_id", old.Manifest().BuildID))
	}
	s.logger.Info("Index loaded", fields...)
	return nil
}

// Matches returns up to topK documents nearest to query with their distances.
// topK <= 0 uses domain.DefaultTopK. An empty index yields no matches without calling the embedder.
func (s *Service) Matches(ctx context.Context, query string, topK int) ([]snapshot.Match, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrIndexNotLoaded
	}
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	if snap.Len() == 0 {
		return []snapshot.Match{}, nil
	}

	start := time.Now()
	defer func() { metrics.RetrievalDuration.Observe(time.Since(start).Seconds()) }()

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	matches, err := snap.Search(emb.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search snapshot %s: %w", snap.Manifest().BuildID, err)
	}
	return matches, nil
}

// Retrieve returns up to topK documents nearest to query, closest first.
func (s *Service) Retrieve(ctx context.Context, query string, topK int) ([]document.Document, error) {
	matches, err := s.Matches(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	docs := make([]document.Document, len(matches))
	for i, m := range matches {
		docs[i] = m.Document
	}
	return docs, nil
}

// HealthCheck fails while no snapshot is loaded.
func (s *Service) HealthCheck(_ context.Context) error {
	if s.current.Load() == nil {
		return domain.ErrIndexNotLoaded
	}
	return nil
}
