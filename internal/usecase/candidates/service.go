package candidates

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// Service answers read-only questions about a profile's candidates.
type Service struct {
	rel   RelationshipReader
	cards CardReader
}

// New creates a candidates service.
func New(rel RelationshipReader, cards CardReader) *Service {
	return &Service{rel: rel, cards: cards}
}

// Relationships returns the liked, disliked and pending sets of a profile.
func (s *Service) Relationships(ctx context.Context, id string) (relationship.Document, error) {
	if strings.TrimSpace(id) == "" {
		return relationship.Document{}, fmt.Errorf("profile id is required: %w", domain.ErrInvalidProfile)
	}
	doc, err := s.rel.Get(ctx, id)
	if err != nil {
		return relationship.Document{}, fmt.Errorf("get relationships: %w", err)
	}
	return doc, nil
}

// Pending returns the cards of every candidate the profile has not judged yet.
func (s *Service) Pending(ctx context.Context, id string) ([]profile.Card, error) {
	doc, err := s.Relationships(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(doc.Pending) == 0 {
		return []profile.Card{}, nil
	}

	cards, err := s.cards.GetCards(ctx, doc.Pending)
	if err != nil {
		return nil, fmt.Errorf("load pending cards: %w", err)
	}
	return cards, nil
}
