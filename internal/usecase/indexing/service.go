// Package indexing turns taxonomy rows into documents and builds the persisted vector index.
package indexing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/eccnrag/internal/db/flat"
	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
	"github.com/kailas-cloud/eccnrag/internal/domain/taxonomy"
)

// DefaultBatchSize is the number of documents embedded per call.
const DefaultBatchSize = 64

// BuildDocuments keeps leaf entries with non-empty text, in input order.
func BuildDocuments(entries []taxonomy.Entry) []document.Document {
	leaves := taxonomy.Leaves(entries)
	docs := make([]document.Document, 0, len(leaves))
	for _, e := range leaves {
		d, err := document.New(e.Code, e.Text())
		if err != nil {
			continue
		}
		docs = append(docs, d)
	}
	return docs
}

// Service builds index snapshots. Building is offline and not meant to run concurrently.
type Service struct {
	embed     Embedder
	saver     Saver
	model     string
	batchSize int
	logger    *zap.Logger
}

// New creates an indexing service. model is recorded in the manifest.
func New(embed Embedder, saver Saver, model string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embed: embed, saver: saver, model: model, batchSize: DefaultBatchSize, logger: logger}
}

// WithBatchSize configures the number of documents per embedding call.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Build encodes every document and returns a snapshot whose vector i belongs to docs[i].
func (s *Service) Build(ctx context.Context, docs []document.Document) (*snapshot.Snapshot, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to index: %w", domain.ErrInvalidCorpus)
	}

	start := time.Now()
	var idx *flat.Index
	var tokens int

	for from := 0; from < len(docs); from += s.batchSize {
		to := min(from+s.batchSize, len(docs))
		texts := make([]string, 0, to-from)
		for _, d := range docs[from:to] {
			texts = append(texts, d.Text())
		}

		res, err := domain.EmbedAll(ctx, s.embed, texts)
		if err != nil {
			return nil, fmt.Errorf("embed documents [%d:%d]: %w", from, to, err)
		}
		tokens += res.TotalTokens

		if idx == nil {
			if idx, err = flat.New(len(res.Embeddings[0])); err != nil {
				return nil, fmt.Errorf("create index: %w", err)
			}
		}
		if err = idx.Add(res.Embeddings...); err != nil {
			return nil, fmt.Errorf("add vectors [%d:%d]: %w", from, to, err)
		}

		s.logger.Debug("Embedded batch", zap.Int("done", to), zap.Int("total", len(docs)))
	}

	snap, err := snapshot.New(snapshot.Manifest{
		BuildID: uuid.NewString(),
		Model:   s.model,
		BuiltAt: time.Now().UTC(),
	}, docs, idx)
	if err != nil {
		return nil, fmt.Errorf("assemble snapshot: %w", err)
	}

	s.logger.Info("Index built",
		zap.String("build_id", snap.Manifest().BuildID),
		zap.Int("documents", snap.Len()),
		zap.Int("dimensions", snap.Manifest().Dimensions),
		zap.Int("tokens", tokens),
		zap.Duration("duration", time.Since(start)),
	)
	return snap, nil
}

// BuildFromEntries builds documents from raw rows, builds the index and saves both artifacts.
func (s *Service) BuildFromEntries(ctx context.Context, entries []taxonomy.Entry) (*snapshot.Snapshot, error) {
	docs := BuildDocuments(entries)
	s.logger.Info("Documents prepared",
		zap.Int("rows", len(entries)),
		zap.Int("documents", len(docs)),
	)

	snap, err := s.Build(ctx, docs)
	if err != nil {
		return nil, err
	}
	if s.saver == nil {
		return snap, nil
	}
	if err = s.saver.Save(snap); err != nil {
		return nil, fmt.Errorf("save artifacts: %w", err)
	}
	return snap, nil
}
