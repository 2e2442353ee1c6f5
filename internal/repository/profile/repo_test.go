package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	domprofile "github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func TestSave_SkipsEmptyFields(t *testing.T) {
	var got map[string]string
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			if key != "vecmatch:profile:p1" {
				t.Errorf("key = %s", key)
			}
			got = fields
			return nil
		},
	}

	err := New(ms).Save(context.Background(), domprofile.Card{ID: "p1", FirstName: "Alice", Age: 29})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["first_name"] != "Alice" || got["age"] != "29" {
		t.Errorf("fields = %v", got)
	}
	if _, ok := got["last_name"]; ok {
		t.Error("empty last_name must not be written")
	}
}

func TestSave_RequiresID(t *testing.T) {
	err := New(&mockStore{}).Save(context.Background(), domprofile.Card{FirstName: "x"})
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestGetCards_OrderAndMissing(t *testing.T) {
	ms := &mockStore{
		hgetAllMultiFn: func(_ context.Context, keys []string) ([]map[string]string, error) {
			if len(keys) != 2 || keys[1] != "vecmatch:profile:b" {
				t.Errorf("keys = %v", keys)
			}
			return []map[string]string{
				{},
				{"first_name": "Bob", "age": "nope", "location": "Berlin"},
			}, nil
		},
	}

	cards, err := New(ms).GetCards(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("cards = %d", len(cards))
	}
	if cards[0].ID != "a" || !cards[0].IsEmpty() {
		t.Errorf("missing card = %+v", cards[0])
	}
	if cards[1].FirstName != "Bob" || cards[1].Location != "Berlin" || cards[1].Age != 0 {
		t.Errorf("card = %+v", cards[1])
	}
}

func TestGetCards_Empty(t *testing.T) {
	ms := &mockStore{
		hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
			t.Fatal("store must not be called")
			return nil, nil
		},
	}
	cards, err := New(ms).GetCards(context.Background(), nil)
	if err != nil || len(cards) != 0 {
		t.Errorf("got (%v, %v)", cards, err)
	}
}

func TestGetCards_StoreError(t *testing.T) {
	ms := &mockStore{
		hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
			return nil, errors.New("down")
		},
	}
	if _, err := New(ms).GetCards(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}
