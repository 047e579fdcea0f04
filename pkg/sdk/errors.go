package eccnrag

import "github.com/kailas-cloud/eccnrag/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyQuery              = domain.ErrEmptyQuery
	ErrIndexNotLoaded          = domain.ErrIndexNotLoaded
	ErrArtifactMismatch        = domain.ErrArtifactMismatch
	ErrDimensionMismatch       = domain.ErrDimensionMismatch
	ErrRateLimited             = domain.ErrRateLimited
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrGenerationProviderError = domain.ErrGenerationProviderError
)
