package decision

import (
	"context"

	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// RelationshipStore is the part of the relationship ledger the engine needs.
type RelationshipStore interface {
	Transition(ctx context.Context, actor, target string, status relationship.Status) error
	Has(ctx context.Context, actor, target string, status relationship.Status) (bool, error)
}
