package matcher

import (
	"context"
	"sync"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// --- Mocks ---

// mockEmbedder maps known texts to fixed vectors.
type mockEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vectors[text], TotalTokens: 1}, nil
}

type mockIndex struct {
	ensureFn func(ctx context.Context, group profile.Group) error
	upsertFn func(ctx context.Context, group profile.Group, id string, self, search []float32) error
	searchFn func(ctx context.Context, group profile.Group, qSelf, qSearch []float32, k int) ([]match.Scored, error)
	order    []string
}

func (m *mockIndex) EnsureIndex(ctx context.Context, group profile.Group) error {
	m.order = append(m.order, "ensure")
	if m.ensureFn != nil {
		return m.ensureFn(ctx, group)
	}
	return nil
}

func (m *mockIndex) Upsert(ctx context.Context, group profile.Group, id string, self, search []float32) error {
	m.order = append(m.order, "upsert")
	if m.upsertFn != nil {
		return m.upsertFn(ctx, group, id, self, search)
	}
	return nil
}

func (m *mockIndex) Search(
	ctx context.Context, group profile.Group, qSelf, qSearch []float32, k int,
) ([]match.Scored, error) {
	m.order = append(m.order, "search")
	if m.searchFn != nil {
		return m.searchFn(ctx, group, qSelf, qSearch, k)
	}
	return nil, nil
}

// memPending mimics the conditional bulk-pending write of the relationship store.
type memPending struct {
	mu      sync.Mutex
	pending map[string]map[string]bool
	decided map[string]map[string]bool
	failFor string
}

func newMemPending() *memPending {
	return &memPending{pending: map[string]map[string]bool{}, decided: map[string]map[string]bool{}}
}

func (m *memPending) decide(actor, target string) {
	if m.decided[actor] == nil {
		m.decided[actor] = map[string]bool{}
	}
	m.decided[actor][target] = true
}

func (m *memPending) AddPendingBulk(_ context.Context, actor string, targets []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if actor == m.failFor {
		return 0, context.DeadlineExceeded
	}
	if m.pending[actor] == nil {
		m.pending[actor] = map[string]bool{}
	}
	added := 0
	for _, t := range targets {
		if m.decided[actor][t] || m.pending[actor][t] {
			continue
		}
		m.pending[actor][t] = true
		added++
	}
	return added, nil
}

type mockCards struct {
	saved []profile.Card
	err   error
}

func (m *mockCards) Save(_ context.Context, card profile.Card) error {
	m.saved = append(m.saved, card)
	return m.err
}

func bob() profile.Profile {
	return profile.Profile{
		ID:         "bob",
		Group:      profile.GroupMale,
		SelfText:   "bob-self",
		SearchText: "bob-search",
	}
}

func testEmbedder() *mockEmbedder {
	return &mockEmbedder{vectors: map[string][]float32{
		"bob-self":   {1, 0},
		"bob-search": {0, 1},
	}}
}
