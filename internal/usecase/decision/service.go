package decision

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/logger"
)

// Service applies feedback to the relationship ledger and decides what to announce.
// It only reads and writes the ledger; publishing the outcome is the caller's job.
type Service struct {
	rel RelationshipStore
}

// New creates a decision service.
func New(rel RelationshipStore) *Service {
	return &Service{rel: rel}
}

// Decide applies one feedback event.
//
//   - dislike / pending: the transition is recorded, nothing is announced;
//   - like from someone the target disliked: ignored entirely (Blocked);
//   - like answering an earlier like: two mutual_like matches;
//   - any other like: one single_like notification for the target.
//
// Malformed events fail with a permanent error. Replaying an event yields the
// same ledger and the same outcome.
func (s *Service) Decide(ctx context.Context, fb event.Feedback) (event.Outcome, error) {
	if err := fb.Validate(); err != nil {
		return event.Outcome{}, err //nolint:wrapcheck // permanent validation error, returned as-is
	}

	if fb.Status != relationship.Liked {
		if err := s.rel.Transition(ctx, fb.ActorID, fb.TargetID, fb.Status); err != nil {
			return event.Outcome{}, fmt.Errorf("apply %s: %w", fb, err)
		}
		return event.Outcome{}, nil
	}

	blocked, err := s.rel.Has(ctx, fb.TargetID, fb.ActorID, relationship.Disliked)
	if err != nil {
		return event.Outcome{}, fmt.Errorf("check block for %s: %w", fb, err)
	}
	if blocked {
		logger.FromContext(ctx).Info("Like suppressed, target disliked actor",
			zap.String("actor_id", fb.ActorID),
			zap.String("target_id", fb.TargetID),
		)
		return event.Outcome{Blocked: true}, nil
	}

	if err := s.rel.Transition(ctx, fb.ActorID, fb.TargetID, relationship.Liked); err != nil {
		return event.Outcome{}, fmt.Errorf("apply %s: %w", fb, err)
	}

	mutual, err := s.rel.Has(ctx, fb.TargetID, fb.ActorID, relationship.Liked)
	if err != nil {
		return event.Outcome{}, fmt.Errorf("check mutual for %s: %w", fb, err)
	}
	if mutual {
		return event.Outcome{Matches: event.MutualMatch(fb.ActorID, fb.TargetID)}, nil
	}

	return event.Outcome{Notifications: []event.Notify{{
		UserID:     fb.TargetID,
		FromUserID: fb.ActorID,
		Reason:     event.ReasonSingleLike,
	}}}, nil
}
