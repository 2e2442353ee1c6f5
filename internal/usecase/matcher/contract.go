package matcher

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// Embedder vectorizes text into embeddings.
type Embedder = domain.Embedder

// SimilarityIndex stores profile vectors per group and answers reciprocal queries.
type SimilarityIndex interface {
	EnsureIndex(ctx context.Context, group profile.Group) error
	Upsert(ctx context.Context, group profile.Group, id string, self, search []float32) error
	Search(ctx context.Context, group profile.Group, qSelf, qSearch []float32, k int) ([]match.Scored, error)
}

// PendingRecorder records suggested candidates without overriding decisions.
type PendingRecorder interface {
	AddPendingBulk(ctx context.Context, actor string, targets []string) (int, error)
}

// CardWriter saves the display card that travels with a profile event.
type CardWriter interface {
	Save(ctx context.Context, card profile.Card) error
}
