package vecmatch

import (
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

// Group is the preference group a profile is indexed under.
type Group string

// Preference groups.
const (
	GroupMale   Group = "male"
	GroupFemale Group = "female"
)

// Status is the judgement one profile holds about another.
type Status string

// Relation statuses.
const (
	Liked    Status = "liked"
	Disliked Status = "disliked"
	Pending  Status = "pending"
)

// ParseStatus accepts canonical and legacy names ("likes", "waiting", ...) in any casing.
func ParseStatus(s string) (Status, error) {
	st, err := relationship.ParseStatus(s)
	if err != nil {
		return "", err //nolint:wrapcheck // message already names the input
	}
	return Status(st), nil
}

// Profile is a user profile as seen by the matcher.
type Profile struct {
	ID         string
	Group      Group
	SelfText   string
	SearchText string
	Card       Card
}

// Card holds the display fields returned with pending candidates.
type Card struct {
	ID        string
	FirstName string
	LastName  string
	Age       int
	Gender    string
	Location  string
}

// Candidate is a matched profile id with its reciprocal score in [0, 3].
type Candidate struct {
	ID    string
	Score float64
}

// AddResult describes what AddProfile did.
type AddResult struct {
	ProfileID  string
	Candidates []Candidate
	// Recorded counts pending relations newly added, both directions.
	Recorded int
}

// Feedback is an actor's judgement of a target.
type Feedback struct {
	ActorID  string
	TargetID string
	Status   Status
}

// Match tells UserID that PartnerID liked them back.
type Match struct {
	UserID    string
	PartnerID string
}

// Notification tells UserID that FromUserID liked them.
type Notification struct {
	UserID     string
	FromUserID string
}

// Outcome is what one feedback produced.
type Outcome struct {
	Matches       []Match
	Notifications []Notification
	// Blocked is set when a like was ignored because the target disliked the actor.
	Blocked bool
}

// Relationships is one profile's view of everyone it has been paired with.
type Relationships struct {
	ProfileID string
	Liked     []string
	Disliked  []string
	Pending   []string
}

// profileToDomain accepts groups in any case, as the event codec does.
func profileToDomain(p Profile) (profile.Profile, error) {
	group, err := profile.ParseGroup(string(p.Group))
	if err != nil {
		return profile.Profile{}, domain.Permanentf("profile %s: %v: %w", p.ID, err, domain.ErrMalformedEvent)
	}
	card := cardToDomain(p.Card)
	if card.ID == "" {
		card.ID = p.ID
	}
	return profile.Profile{
		ID:         p.ID,
		Group:      group,
		SelfText:   p.SelfText,
		SearchText: p.SearchText,
		Card:       card,
	}, nil
}

func cardToDomain(c Card) profile.Card {
	return profile.Card{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Age:       c.Age,
		Gender:    c.Gender,
		Location:  c.Location,
	}
}

func cardFromDomain(c profile.Card) Card {
	return Card{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Age:       c.Age,
		Gender:    c.Gender,
		Location:  c.Location,
	}
}

// feedbackToDomain accepts the same status aliases as the event codec.
// A missing status means pending.
func feedbackToDomain(f Feedback) (event.Feedback, error) {
	status := relationship.Pending
	if strings.TrimSpace(string(f.Status)) != "" {
		s, err := relationship.ParseStatus(string(f.Status))
		if err != nil {
			return event.Feedback{}, domain.Permanentf("feedback: %v: %w", err, domain.ErrMalformedEvent)
		}
		status = s
	}
	return event.Feedback{
		ActorID:  f.ActorID,
		TargetID: f.TargetID,
		Status:   status,
	}, nil
}

func addResultFromDomain(r matcher.Result) AddResult {
	res := AddResult{
		ProfileID:  r.ProfileID,
		Candidates: make([]Candidate, len(r.Candidates)),
		Recorded:   r.Recorded,
	}
	for i, c := range r.Candidates {
		res.Candidates[i] = scoredFromDomain(c)
	}
	return res
}

func scoredFromDomain(s match.Scored) Candidate {
	return Candidate{ID: s.ID, Score: s.Score}
}

func outcomeFromDomain(o event.Outcome) Outcome {
	out := Outcome{Blocked: o.Blocked}
	for _, m := range o.Matches {
		out.Matches = append(out.Matches, Match{UserID: m.UserID, PartnerID: m.PartnerID})
	}
	for _, n := range o.Notifications {
		out.Notifications = append(out.Notifications, Notification{UserID: n.UserID, FromUserID: n.FromUserID})
	}
	return out
}

func relationshipsFromDomain(d relationship.Document) Relationships {
	return Relationships{
		ProfileID: d.ProfileID,
		Liked:     d.Liked,
		Disliked:  d.Disliked,
		Pending:   d.Pending,
	}
}
