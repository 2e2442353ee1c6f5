package relationship

import (
	"fmt"
	"strings"
)

// Status is the state one profile holds about another.
type Status string

const (
	// Liked means the actor expressed interest.
	Liked Status = "liked"
	// Disliked means the actor rejected the target. Also blocks the target's likes.
	Disliked Status = "disliked"
	// Pending means the target was suggested but not yet judged.
	Pending Status = "pending"
)

// Statuses lists every status in storage order.
var Statuses = []Status{Liked, Disliked, Pending}

// aliases covers the status names used on the legacy wire format.
var aliases = map[string]Status{
	"liked":    Liked,
	"like":     Liked,
	"likes":    Liked,
	"disliked": Disliked,
	"dislike":  Disliked,
	"dislikes": Disliked,
	"pending":  Pending,
	"waiting":  Pending,
}

// ParseStatus accepts canonical and legacy names in any casing.
func ParseStatus(s string) (Status, error) {
	st, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// IsValid checks if the status is one of the three sets.
func (s Status) IsValid() bool {
	return s == Liked || s == Disliked || s == Pending
}

// Others returns the two statuses a transition to s must clear.
func (s Status) Others() [2]Status {
	switch s {
	case Liked:
		return [2]Status{Disliked, Pending}
	case Disliked:
		return [2]Status{Liked, Pending}
	default:
		return [2]Status{Liked, Disliked}
	}
}

// Document is one actor's view of everyone it has been paired with.
// The three sets are pairwise disjoint.
type Document struct {
	ProfileID string   `json:"profile_id"`
	Liked     []string `json:"liked"`
	Disliked  []string `json:"disliked"`
	Pending   []string `json:"pending"`
}

// Set returns the ids held under the given status.
func (d *Document) Set(s Status) []string {
	switch s {
	case Liked:
		return d.Liked
	case Disliked:
		return d.Disliked
	case Pending:
		return d.Pending
	}
	return nil
}
