package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

// Group is the preference group a profile is indexed under.
// Candidates are always drawn from the opposite group.
type Group string

const (
	// GroupMale holds profiles that declared themselves male.
	GroupMale Group = "male"
	// GroupFemale holds profiles that declared themselves female.
	GroupFemale Group = "female"
)

// Groups lists every partition of the similarity index.
var Groups = []Group{GroupMale, GroupFemale}

// ParseGroup accepts any casing ("Male", "FEMALE", ...).
func ParseGroup(s string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("unknown preference group %q", s)
	}
	return g, nil
}

// IsValid checks if the group is one of the two supported partitions.
func (g Group) IsValid() bool {
	return g == GroupMale || g == GroupFemale
}

// Opposite returns the partition searched for candidates.
func (g Group) Opposite() Group {
	if g == GroupMale {
		return GroupFemale
	}
	return GroupMale
}

// Profile is the matching-relevant part of a user profile.
type Profile struct {
	ID         string
	Group      Group
	SelfText   string
	SearchText string
	Card       Card
}

// Validate checks the fields every matching step depends on.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required: %w", domain.ErrInvalidProfile)
	}
	if !p.Group.IsValid() {
		return fmt.Errorf("preference group %q: %w", p.Group, domain.ErrInvalidProfile)
	}
	if strings.TrimSpace(p.SelfText) == "" {
		return fmt.Errorf("self text is required: %w", domain.ErrInvalidProfile)
	}
	if strings.TrimSpace(p.SearchText) == "" {
		return fmt.Errorf("search text is required: %w", domain.ErrInvalidProfile)
	}
	return nil
}

// Card holds the display fields shown next to a pending candidate.
type Card struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Location  string `json:"location,omitempty"`
}

// IsEmpty reports whether the card carries nothing beyond the id.
func (c Card) IsEmpty() bool {
	return c.FirstName == "" && c.LastName == "" && c.Age == 0 && c.Gender == "" && c.Location == ""
}

// DeriveID returns the content-derived profile id: hex(sha256(concat(parts))).
// Registration hashes the email alone, so DeriveID(email) reproduces its ids.
func DeriveID(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(h[:])
}
