package pipeline

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// profileWire is the profile-created payload. The second field of every pair
// is the name used by the registration service before the rename.
type profileWire struct {
	ID       string `json:"id,omitempty"`
	UniqueID string `json:"unique_id,omitempty"`
	Email    string `json:"email,omitempty"`

	PreferenceGroup string `json:"preference_group,omitempty"`
	Gender          string `json:"gender,omitempty"`

	SelfText     string `json:"self_text,omitempty"`
	FreeTextSelf string `json:"free_text_self,omitempty"`

	SearchText        string `json:"search_text,omitempty"`
	FreeTextForSearch string `json:"free_text_for_search,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Age       int    `json:"age,omitempty"`
	Location  string `json:"location,omitempty"`
}

type feedbackWire struct {
	ActorID  string `json:"actor_id"`
	TargetID string `json:"target_id"`
	Status   string `json:"status"`
}

// DecodeProfile parses a profile-created payload. Every failure is permanent.
func DecodeProfile(payload []byte) (profile.Profile, error) {
	var w profileWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return profile.Profile{}, domain.Permanentf("decode profile: %v: %w", err, domain.ErrMalformedEvent)
	}

	id := firstNonEmpty(w.ID, w.UniqueID)
	if id == "" && strings.TrimSpace(w.Email) != "" {
		id = profile.DeriveID(strings.TrimSpace(w.Email))
	}

	rawGroup := firstNonEmpty(w.PreferenceGroup, w.Gender)
	group, err := profile.ParseGroup(rawGroup)
	if err != nil {
		return profile.Profile{}, domain.Permanentf("profile %s: %v: %w", id, err, domain.ErrMalformedEvent)
	}

	p := profile.Profile{
		ID:         id,
		Group:      group,
		SelfText:   firstNonEmpty(w.SelfText, w.FreeTextSelf),
		SearchText: firstNonEmpty(w.SearchText, w.FreeTextForSearch),
		Card: profile.Card{
			ID:        id,
			FirstName: w.FirstName,
			LastName:  w.LastName,
			Age:       w.Age,
			Gender:    w.Gender,
			Location:  w.Location,
		},
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, domain.Permanent(fmt.Errorf("%w: %w", err, domain.ErrMalformedEvent))
	}
	return p, nil
}

// DecodeFeedback parses a feedback payload. A missing status means pending,
// an unknown one is malformed.
func DecodeFeedback(payload []byte) (event.Feedback, error) {
	var w feedbackWire
	if err := json.Unmarshal(payload, &w); err != nil {
		return event.Feedback{}, domain.Permanentf("decode feedback: %v: %w", err, domain.ErrMalformedEvent)
	}

	status := relationship.Pending
	if strings.TrimSpace(w.Status) != "" {
		s, err := relationship.ParseStatus(w.Status)
		if err != nil {
			return event.Feedback{}, domain.Permanentf("feedback: %v: %w", err, domain.ErrMalformedEvent)
		}
		status = s
	}

	fb := event.Feedback{
		ActorID:  strings.TrimSpace(w.ActorID),
		TargetID: strings.TrimSpace(w.TargetID),
		Status:   status,
	}
	if err := fb.Validate(); err != nil {
		return event.Feedback{}, err
	}
	return fb, nil
}

// EncodeFeedback renders fb in the canonical wire format.
func EncodeFeedback(fb event.Feedback) ([]byte, error) {
	data, err := json.Marshal(feedbackWire{ActorID: fb.ActorID, TargetID: fb.TargetID, Status: string(fb.Status)})
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}
	return data, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// EncodeProfile renders p in the canonical wire format.
func EncodeProfile(p profile.Profile) ([]byte, error) {
	data, err := json.Marshal(profileWire{
		ID:              p.ID,
		PreferenceGroup: string(p.Group),
		SelfText:        p.SelfText,
		SearchText:      p.SearchText,
		FirstName:       p.Card.FirstName,
		LastName:        p.Card.LastName,
		Age:             p.Card.Age,
		Gender:          p.Card.Gender,
		Location:        p.Card.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return data, nil
}
