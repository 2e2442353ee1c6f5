package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	domprofile "github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// store is the consumer interface for profile cards (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Repo reads and writes the display cards kept next to each profile.
type Repo struct {
	store store
}

// New creates a profile card repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes the non-empty fields of a card.
func (r *Repo) Save(ctx context.Context, card domprofile.Card) error {
	if strings.TrimSpace(card.ID) == "" {
		return fmt.Errorf("card id is required: %w", domain.ErrInvalidProfile)
	}
	if err := r.store.HSet(ctx, cardKey(card.ID), cardToHash(card)); err != nil {
		return fmt.Errorf("hset card %s: %w", card.ID, err)
	}
	return nil
}

// GetCards returns one card per id, in order. Ids without a stored card
// come back as a bare Card{ID: id}.
func (r *Repo) GetCards(ctx context.Context, ids []string) ([]domprofile.Card, error) {
	if len(ids) == 0 {
		return []domprofile.Card{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cardKey(id)
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall cards: %w", err)
	}

	cards := make([]domprofile.Card, len(ids))
	for i, id := range ids {
		if i < len(results) && len(results[i]) > 0 {
			cards[i] = cardFromHash(id, results[i])
			continue
		}
		cards[i] = domprofile.Card{ID: id}
	}
	return cards, nil
}

func cardKey(id string) string {
	return fmt.Sprintf("%sprofile:%s", domain.KeyPrefix, id)
}
