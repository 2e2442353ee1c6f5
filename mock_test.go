package vecmatch

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	matcheruc "github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

type mockStore struct {
	pingFn func(ctx context.Context) error
	closed bool
}

func (m *mockStore) Ping(ctx context.Context) error { return m.pingFn(ctx) }
func (m *mockStore) Close()                         { m.closed = true }

type mockMatcher struct {
	processFn func(ctx context.Context, p profile.Profile) (matcheruc.Result, error)
}

func (m *mockMatcher) Process(ctx context.Context, p profile.Profile) (matcheruc.Result, error) {
	return m.processFn(ctx, p)
}

type mockDecider struct {
	decideFn func(ctx context.Context, fb event.Feedback) (event.Outcome, error)
}

func (m *mockDecider) Decide(ctx context.Context, fb event.Feedback) (event.Outcome, error) {
	return m.decideFn(ctx, fb)
}

type mockCandidates struct {
	relationshipsFn func(ctx context.Context, id string) (relationship.Document, error)
	pendingFn       func(ctx context.Context, id string) ([]profile.Card, error)
}

func (m *mockCandidates) Relationships(ctx context.Context, id string) (relationship.Document, error) {
	return m.relationshipsFn(ctx, id)
}

func (m *mockCandidates) Pending(ctx context.Context, id string) ([]profile.Card, error) {
	return m.pendingFn(ctx, id)
}

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}
