package dataset

import (
	"context"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

// Generator rewrites a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
