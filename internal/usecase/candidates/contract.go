package candidates

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// RelationshipReader reads an actor's full relationship document.
type RelationshipReader interface {
	Get(ctx context.Context, actor string) (relationship.Document, error)
}

// CardReader loads display cards for a list of profile ids.
type CardReader interface {
	GetCards(ctx context.Context, ids []string) ([]profile.Card, error)
}
