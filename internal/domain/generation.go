package domain

import "context"

// Generator produces a single text completion for a prompt.
// Calls are not idempotent in cost; callers decide whether to retry.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the completion text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
