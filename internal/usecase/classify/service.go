// Package classify runs the online pipeline: retrieve candidates, then decide.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/eccnrag/internal/domain"
	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
)

// Service classifies product descriptions.
type Service struct {
	retriever Retriever
	decider   Decider
	topK      int
}

// New creates a classify service. topK <= 0 uses domain.DefaultTopK.
func New(retriever Retriever, decider Decider, topK int) *Service {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Service{retriever: retriever, decider: decider, topK: topK}
}

// TopK returns the number of candidates retrieved per query.
func (s *Service) TopK() int { return s.topK }

// Classify trims text, retrieves candidates and decides.
// Blank text fails with domain.ErrEmptyQuery before any external call.
func (s *Service) Classify(ctx context.Context, text string) (domdec.Decision, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return domdec.Decision{}, domain.ErrEmptyQuery
	}

	candidates, err := s.retriever.Retrieve(ctx, query, s.topK)
	if err != nil {
		return domdec.Decision{}, fmt.Errorf("retrieve candidates: %w", err)
	}

	d, err := s.decider.Decide(ctx, query, candidates)
	if err != nil {
		return domdec.Decision{}, fmt.Errorf("decide: %w", err)
	}
	return d, nil
}
