package event

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// Reason explains why an outbound event was emitted.
type Reason string

const (
	// ReasonMutualLike is set on both match events of a mutual like.
	ReasonMutualLike Reason = "mutual_like"
	// ReasonSingleLike is set on the notification sent to a liked target.
	ReasonSingleLike Reason = "single_like"
)

// Feedback is an actor's judgement of a target.
type Feedback struct {
	ActorID  string
	TargetID string
	Status   relationship.Status
}

// Validate returns a permanent ErrMalformedEvent for anything the engine cannot act on.
func (f *Feedback) Validate() error {
	if strings.TrimSpace(f.ActorID) == "" {
		return domain.Permanentf("actor id is required: %w", domain.ErrMalformedEvent)
	}
	if strings.TrimSpace(f.TargetID) == "" {
		return domain.Permanentf("target id is required: %w", domain.ErrMalformedEvent)
	}
	if f.ActorID == f.TargetID {
		return domain.Permanentf("%w: %w", domain.ErrSelfRelation, domain.ErrMalformedEvent)
	}
	if !f.Status.IsValid() {
		return domain.Permanentf("status %q: %w", f.Status, domain.ErrMalformedEvent)
	}
	return nil
}

// Match tells UserID that PartnerID liked them back.
type Match struct {
	UserID    string `json:"user_id"`
	PartnerID string `json:"partner_id"`
	Reason    Reason `json:"reason"`
}

// Notify tells UserID that FromUserID liked them.
type Notify struct {
	UserID     string `json:"user_id"`
	FromUserID string `json:"from_user_id"`
	Reason     Reason `json:"reason"`
}

// Outcome is what the decision engine produced for one feedback event.
type Outcome struct {
	Matches       []Match
	Notifications []Notify
	// Blocked is set when a like was ignored because the target disliked the actor.
	Blocked bool
}

// IsEmpty reports whether nothing has to be published.
func (o Outcome) IsEmpty() bool {
	return len(o.Matches) == 0 && len(o.Notifications) == 0
}

// MutualMatch builds the pair of match events for a mutual like, one per side.
func MutualMatch(a, b string) []Match {
	return []Match{
		{UserID: a, PartnerID: b, Reason: ReasonMutualLike},
		{UserID: b, PartnerID: a, Reason: ReasonMutualLike},
	}
}

// String is used in log lines.
func (f Feedback) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", f.ActorID, f.Status, f.TargetID)
}
