package decision

import (
	"context"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (domain.GenerationResult, error)
}
