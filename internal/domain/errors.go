package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank product description at the API boundary.
	ErrEmptyQuery = errors.New("empty product text")
	// ErrIndexNotLoaded signals that no index snapshot is being served yet.
	ErrIndexNotLoaded = errors.New("index not loaded")
	// ErrArtifactMismatch signals an index file and metadata file from different builds.
	ErrArtifactMismatch = errors.New("index artifact mismatch")
	// ErrDimensionMismatch signals a vector whose width differs from the index width.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidCorpus signals an unreadable or malformed taxonomy corpus.
	ErrInvalidCorpus = errors.New("invalid corpus")
	// ErrInvalidDataset signals an unreadable or malformed evaluation dataset.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrRateLimited signals a rate limit hit at a model provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a generative model failure.
	ErrGenerationProviderError = errors.New("generation provider error")
)
