// Package snapshot couples a vector index with the ordered documents it was built from.
package snapshot

import (
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
)

// Manifest identifies one build of the index artifacts.
type Manifest struct {
	BuildID    string
	Model      string
	Dimensions int
	Count      int
	BuiltAt    time.Time
}

// Match is a retrieved document and its squared L2 distance to the query.
type Match struct {
	Document document.Document
	Distance float32
}

// Snapshot is an immutable, searchable index build.
// Position i in the index always refers to documents[i].
type Snapshot struct {
	manifest  Manifest
	documents []document.Document
	index     domain.VectorIndex
}

// New validates that the index and the documents line up and returns a Snapshot.
// Count and Dimensions in the manifest are taken from the index.
func New(m Manifest, docs []document.Document, index domain.VectorIndex) (*Snapshot, error) {
	if index == nil {
		return nil, fmt.Errorf("snapshot: index is required")
	}
	if index.Len() != len(docs) {
		return nil, fmt.Errorf("snapshot: index has %d vectors, metadata has %d documents: %w",
			index.Len(), len(docs), domain.ErrArtifactMismatch)
	}
	m.Count = len(docs)
	m.Dimensions = index.Dim()
	return &Snapshot{manifest: m, documents: slices.Clone(docs), index: index}, nil
}

// Search returns up to k documents nearest to query, closest first.
// An empty snapshot returns no matches.
func (s *Snapshot) Search(query []float32, k int) ([]Match, error) {
	if len(s.documents) == 0 || k <= 0 {
		return []Match{}, nil
	}
	hits, err := s.index.Search(query, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(s.documents) {
			return nil, fmt.Errorf("index position %d out of range: %w", h.Position, domain.ErrArtifactMismatch)
		}
		matches = append(matches, Match{Document: s.documents[h.Position], Distance: h.Distance})
	}
	return matches, nil
}

// Manifest returns the build identity.
func (s *Snapshot) Manifest() Manifest { return s.manifest }

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int { return len(s.documents) }

// Documents returns the documents in index order.
func (s *Snapshot) Documents() []document.Document { return slices.Clone(s.documents) }

// Index returns the underlying vector index.
func (s *Snapshot) Index() domain.VectorIndex { return s.index }
