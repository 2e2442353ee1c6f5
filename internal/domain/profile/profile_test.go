package profile

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

func TestParseGroup(t *testing.T) {
	tests := []struct {
		in      string
		want    Group
		wantErr bool
	}{
		{"Male", GroupMale, false},
		{"female", GroupFemale, false},
		{" FEMALE ", GroupFemale, false},
		{"other", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseGroup(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseGroup(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseGroup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGroup_Opposite(t *testing.T) {
	if GroupMale.Opposite() != GroupFemale {
		t.Error("male must search female")
	}
	if GroupFemale.Opposite() != GroupMale {
		t.Error("female must search male")
	}
}

func TestProfile_Validate(t *testing.T) {
	valid := Profile{ID: "p1", Group: GroupMale, SelfText: "hiker", SearchText: "reader"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := map[string]Profile{
		"no id":          {Group: GroupMale, SelfText: "a", SearchText: "b"},
		"bad group":      {ID: "p1", Group: "x", SelfText: "a", SearchText: "b"},
		"no self text":   {ID: "p1", Group: GroupMale, SelfText: " ", SearchText: "b"},
		"no search text": {ID: "p1", Group: GroupMale, SelfText: "a"},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			err := p.Validate()
			if !errors.Is(err, domain.ErrInvalidProfile) {
				t.Fatalf("expected ErrInvalidProfile, got %v", err)
			}
		})
	}
}

func TestDeriveID(t *testing.T) {
	// sha256("alice@example.com")
	const want = "ff8d9819fc0e12bf0d24892e45987e249a28dce836a85cad60e28eaaa8c6d976"
	if got := DeriveID("alice@example.com"); got != want {
		t.Errorf("DeriveID = %s, want %s", got, want)
	}
	if DeriveID("a", "b") != DeriveID("ab") {
		t.Error("parts must be concatenated")
	}
}

func TestCard_IsEmpty(t *testing.T) {
	if !(Card{ID: "x"}).IsEmpty() {
		t.Error("id-only card is empty")
	}
	if (Card{ID: "x", Age: 30}).IsEmpty() {
		t.Error("card with age is not empty")
	}
}
