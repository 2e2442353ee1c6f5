package matcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/logger"
)

const (
	// DefaultTopK is how many candidates a new profile is paired with.
	DefaultTopK = 3
	// reverseWriteLimit caps concurrent reverse pending writes per profile.
	reverseWriteLimit = 8
)

// Result describes what processing one profile did.
type Result struct {
	ProfileID  string
	Group      profile.Group
	Candidates []match.Scored
	// Recorded counts pending relations newly added, both directions.
	Recorded int
}

// Service turns a new profile into index vectors and symmetric pending candidates.
//
// Every step is idempotent or additive, so a redelivered event converges on
// the same state no matter where the previous attempt stopped.
type Service struct {
	embed Embedder
	index SimilarityIndex
	rel   PendingRecorder
	cards CardWriter
	topK  int
}

// New creates a matcher service.
func New(embed Embedder, index SimilarityIndex, rel PendingRecorder) *Service {
	return &Service{embed: embed, index: index, rel: rel, topK: DefaultTopK}
}

// WithTopK configures how many candidates are recorded per profile.
func (s *Service) WithTopK(k int) *Service {
	if k > 0 {
		s.topK = k
	}
	return s
}

// WithCards stores non-empty profile cards next to the vectors.
func (s *Service) WithCards(c CardWriter) *Service {
	s.cards = c
	return s
}

// Process embeds, indexes and pairs a profile with its best candidates.
func (s *Service) Process(ctx context.Context, p profile.Profile) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, domain.Permanent(fmt.Errorf("%w: %w", err, domain.ErrMalformedEvent))
	}
	log := logger.FromContext(ctx).With(zap.String("profile_id", p.ID), zap.String("group", string(p.Group)))

	vecs, err := domain.EmbedProfile(ctx, s.embed, p.SelfText, p.SearchText)
	if err != nil {
		return Result{}, fmt.Errorf("embed %s: %w", p.ID, err)
	}

	if err := s.index.EnsureIndex(ctx, p.Group); err != nil {
		return Result{}, fmt.Errorf("ensure index: %w", err)
	}
	if err := s.index.Upsert(ctx, p.Group, p.ID, vecs.Self, vecs.Search); err != nil {
		return Result{}, fmt.Errorf("index %s: %w", p.ID, err)
	}

	if s.cards != nil && !p.Card.IsEmpty() {
		card := p.Card
		card.ID = p.ID
		if err := s.cards.Save(ctx, card); err != nil {
			return Result{}, fmt.Errorf("save card: %w", err)
		}
	}

	candidates, err := s.index.Search(ctx, p.Group.Opposite(), vecs.Self, vecs.Search, s.topK)
	if err != nil {
		return Result{}, fmt.Errorf("search candidates: %w", err)
	}

	res := Result{ProfileID: p.ID, Group: p.Group, Candidates: candidates}
	if len(candidates) == 0 {
		log.Warn("No candidates found", zap.String("searched_group", string(p.Group.Opposite())))
		return res, nil
	}

	ids := match.IDs(candidates)
	added, err := s.rel.AddPendingBulk(ctx, p.ID, ids)
	if err != nil {
		return Result{}, fmt.Errorf("record candidates: %w", err)
	}

	reverse, err := s.recordReverse(ctx, p.ID, ids)
	if err != nil {
		return Result{}, err
	}

	res.Recorded = added + reverse
	log.Debug("Candidates recorded",
		zap.Strings("candidates", ids),
		zap.Int("recorded", res.Recorded),
		zap.Int("total_tokens", vecs.TotalTokens),
	)
	return res, nil
}

// recordReverse makes the pending relation symmetric: each candidate gets the
// profile as pending unless it already decided about it.
func (s *Service) recordReverse(ctx context.Context, profileID string, candidates []string) (int, error) {
	counts := make([]int, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reverseWriteLimit)
	for i, c := range candidates {
		g.Go(func() error {
			n, err := s.rel.AddPendingBulk(gctx, c, []string{profileID})
			if err != nil {
				return fmt.Errorf("record %s for candidate %s: %w", profileID, c, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err //nolint:wrapcheck // already wrapped per candidate
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
