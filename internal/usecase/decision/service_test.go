package decision

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// --- Mocks ---

type pair struct{ actor, target string }

// memLedger keeps one status per ordered pair, which is what the disjoint sets encode.
type memLedger struct {
	state       map[pair]relationship.Status
	transitions int
	hasErr      error
}

func newLedger() *memLedger {
	return &memLedger{state: map[pair]relationship.Status{}}
}

func (m *memLedger) Transition(_ context.Context, actor, target string, status relationship.Status) error {
	m.transitions++
	m.state[pair{actor, target}] = status
	return nil
}

func (m *memLedger) Has(_ context.Context, actor, target string, status relationship.Status) (bool, error) {
	if m.hasErr != nil {
		return false, m.hasErr
	}
	return m.state[pair{actor, target}] == status, nil
}

func like(actor, target string) event.Feedback {
	return event.Feedback{ActorID: actor, TargetID: target, Status: relationship.Liked}
}

// --- Tests ---

func TestDecide_SingleThenMutualLike(t *testing.T) {
	ledger := newLedger()
	svc := New(ledger)
	ctx := context.Background()

	first, err := svc.Decide(ctx, like("bob", "alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantNotify := []event.Notify{{UserID: "alice", FromUserID: "bob", Reason: event.ReasonSingleLike}}
	if !reflect.DeepEqual(first.Notifications, wantNotify) || len(first.Matches) != 0 {
		t.Errorf("first like outcome = %+v", first)
	}

	second, err := svc.Decide(ctx, like("alice", "bob"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantMatches := []event.Match{
		{UserID: "alice", PartnerID: "bob", Reason: event.ReasonMutualLike},
		{UserID: "bob", PartnerID: "alice", Reason: event.ReasonMutualLike},
	}
	if !reflect.DeepEqual(second.Matches, wantMatches) || len(second.Notifications) != 0 {
		t.Errorf("mutual like outcome = %+v", second)
	}
}

func TestDecide_BlockedLike(t *testing.T) {
	ledger := newLedger()
	ledger.state[pair{"alice", "bob"}] = relationship.Disliked
	svc := New(ledger)

	out, err := svc.Decide(context.Background(), like("bob", "alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Blocked || !out.IsEmpty() {
		t.Errorf("outcome = %+v, want blocked and empty", out)
	}
	if ledger.transitions != 0 {
		t.Error("a blocked like must not be recorded")
	}
	if ledger.state[pair{"alice", "bob"}] != relationship.Disliked {
		t.Error("the target's dislike must be unchanged")
	}
}

func TestDecide_ActorOwnDislikeDoesNotBlock(t *testing.T) {
	ledger := newLedger()
	ledger.state[pair{"bob", "alice"}] = relationship.Disliked

	out, err := New(ledger).Decide(context.Background(), like("bob", "alice"))
	if err != nil {
		t.Fatal(err)
	}
	if out.Blocked || len(out.Notifications) != 1 {
		t.Errorf("outcome = %+v", out)
	}
	if ledger.state[pair{"bob", "alice"}] != relationship.Liked {
		t.Error("changing one's mind must move the target to liked")
	}
}

func TestDecide_NonLikeOnlyTransitions(t *testing.T) {
	for _, st := range []relationship.Status{relationship.Disliked, relationship.Pending} {
		t.Run(string(st), func(t *testing.T) {
			ledger := newLedger()
			ledger.state[pair{"alice", "bob"}] = relationship.Liked

			out, err := New(ledger).Decide(context.Background(),
				event.Feedback{ActorID: "bob", TargetID: "alice", Status: st})
			if err != nil {
				t.Fatal(err)
			}
			if !out.IsEmpty() || out.Blocked {
				t.Errorf("outcome = %+v, want empty", out)
			}
			if ledger.state[pair{"bob", "alice"}] != st {
				t.Errorf("state = %s, want %s", ledger.state[pair{"bob", "alice"}], st)
			}
		})
	}
}

func TestDecide_ReplayIsStable(t *testing.T) {
	ledger := newLedger()
	ledger.state[pair{"alice", "bob"}] = relationship.Liked
	svc := New(ledger)
	ctx := context.Background()

	a, _ := svc.Decide(ctx, like("bob", "alice"))
	stateAfterFirst := ledger.state[pair{"bob", "alice"}]
	b, _ := svc.Decide(ctx, like("bob", "alice"))

	if !reflect.DeepEqual(a, b) {
		t.Errorf("replay produced %+v, first produced %+v", b, a)
	}
	if ledger.state[pair{"bob", "alice"}] != stateAfterFirst {
		t.Error("replay changed the ledger")
	}
}

func TestDecide_Malformed(t *testing.T) {
	tests := []event.Feedback{
		{ActorID: "", TargetID: "b", Status: relationship.Liked},
		{ActorID: "a", TargetID: "", Status: relationship.Liked},
		{ActorID: "a", TargetID: "a", Status: relationship.Liked},
		{ActorID: "a", TargetID: "b", Status: relationship.Status("love")},
	}
	for _, fb := range tests {
		ledger := newLedger()
		out, err := New(ledger).Decide(context.Background(), fb)
		if !domain.IsPermanent(err) || !errors.Is(err, domain.ErrMalformedEvent) {
			t.Errorf("%v: expected permanent malformed error, got %v", fb, err)
		}
		if !out.IsEmpty() || ledger.transitions != 0 {
			t.Errorf("%v: malformed event must have no effect", fb)
		}
	}
}

func TestDecide_StoreErrorIsTransient(t *testing.T) {
	ledger := newLedger()
	ledger.hasErr = errors.New("connection refused")

	_, err := New(ledger).Decide(context.Background(), like("bob", "alice"))
	if err == nil || domain.IsPermanent(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
