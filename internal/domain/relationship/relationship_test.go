package relationship

import "testing"

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"liked":    Liked,
		"likes":    Liked,
		"Dislikes": Disliked,
		"waiting":  Pending,
		"PENDING":  Pending,
	}
	for in, want := range tests {
		got, err := ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseStatus("maybe"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestStatus_Others(t *testing.T) {
	for _, s := range Statuses {
		others := s.Others()
		if others[0] == s || others[1] == s || others[0] == others[1] {
			t.Errorf("Others(%q) = %v", s, others)
		}
	}
}

func TestDocument_Set(t *testing.T) {
	d := Document{Liked: []string{"a"}, Disliked: []string{"b"}, Pending: []string{"c"}}
	if d.Set(Liked)[0] != "a" || d.Set(Disliked)[0] != "b" || d.Set(Pending)[0] != "c" {
		t.Errorf("unexpected sets: %+v", d)
	}
	if d.Set("bogus") != nil {
		t.Error("unknown status must return nil")
	}
}
