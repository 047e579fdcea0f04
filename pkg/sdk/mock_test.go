package eccnrag

import (
	"context"

	domdec "github.com/kailas-cloud/eccnrag/internal/domain/decision"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
	healthuc "github.com/kailas-cloud/eccnrag/internal/usecase/health"
)

// --- public interface mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockGenerator struct {
	fn    func(ctx context.Context, prompt string) (GenerationResult, error)
	calls int
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (GenerationResult, error) {
	m.calls++
	return m.fn(ctx, prompt)
}

// --- internal use case mocks ---

type mockRetrieval struct {
	matchesFn  func(ctx context.Context, query string, topK int) ([]snapshot.Match, error)
	reloadFn   func(ctx context.Context) error
	snapshotFn func() *snapshot.Snapshot
}

func (m *mockRetrieval) Matches(ctx context.Context, query string, topK int) ([]snapshot.Match, error) {
	return m.matchesFn(ctx, query, topK)
}

func (m *mockRetrieval) Reload(ctx context.Context) error { return m.reloadFn(ctx) }

func (m *mockRetrieval) Snapshot() *snapshot.Snapshot { return m.snapshotFn() }

type mockClassifier struct {
	fn func(ctx context.Context, text string) (domdec.Decision, error)
}

func (m *mockClassifier) Classify(ctx context.Context, text string) (domdec.Decision, error) {
	return m.fn(ctx, text)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- helpers ---

func testClient(retrieval retrievalUseCase, classifier classifyUseCase, health healthUseCase) *Client {
	return &Client{
		retrieval:  retrieval,
		classifier: classifier,
		healthSvc:  health,
		topK:       5,
	}
}
