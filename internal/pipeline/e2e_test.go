package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/usecase/decision"
	"github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

// memLedger is an in-memory relationship ledger with the same conditional
// pending semantics as the Lua scripts.
type memLedger struct {
	mu   sync.Mutex
	rels map[string]map[string]relationship.Status
}

func newMemLedger() *memLedger {
	return &memLedger{rels: map[string]map[string]relationship.Status{}}
}

func (l *memLedger) Transition(_ context.Context, actor, target string, s relationship.Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rels[actor] == nil {
		l.rels[actor] = map[string]relationship.Status{}
	}
	l.rels[actor][target] = s
	return nil
}

func (l *memLedger) Has(_ context.Context, actor, target string, s relationship.Status) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	got, ok := l.rels[actor][target]
	return ok && got == s, nil
}

func (l *memLedger) AddPendingBulk(_ context.Context, actor string, targets []string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rels[actor] == nil {
		l.rels[actor] = map[string]relationship.Status{}
	}
	added := 0
	for _, t := range targets {
		if _, ok := l.rels[actor][t]; ok {
			continue
		}
		l.rels[actor][t] = relationship.Pending
		added++
	}
	return added, nil
}

func (l *memLedger) status(actor, target string) relationship.Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rels[actor][target]
}

// memIndex ranks with the real reciprocal scorer over every record of a group.
type memIndex struct {
	mu     sync.Mutex
	groups map[profile.Group][]match.Candidate
}

func (x *memIndex) EnsureIndex(context.Context, profile.Group) error { return nil }

func (x *memIndex) Upsert(_ context.Context, g profile.Group, id string, self, search []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.groups == nil {
		x.groups = map[profile.Group][]match.Candidate{}
	}
	c := match.Candidate{ID: id, SelfVector: self, SearchVector: search}
	for i := range x.groups[g] {
		if x.groups[g][i].ID == id {
			x.groups[g][i] = c
			return nil
		}
	}
	x.groups[g] = append(x.groups[g], c)
	return nil
}

func (x *memIndex) Search(_ context.Context, g profile.Group, qSelf, qSearch []float32, k int) ([]match.Scored, error) {
	x.mu.Lock()
	pool := append([]match.Candidate(nil), x.groups[g]...)
	x.mu.Unlock()
	return match.Rank(qSelf, qSearch, pool, k), nil
}

func (x *memIndex) size(g profile.Group) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.groups[g])
}

type tableEmbedder map[string][]float32

func (e tableEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v, ok := e[text]
	if !ok {
		return domain.EmbeddingResult{}, fmt.Errorf("no vector for %q", text)
	}
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

func TestEndToEnd_AliceAndBob(t *testing.T) {
	ledger := newMemLedger()
	emb := tableEmbedder{
		"alice-self":   {1, 0},
		"alice-search": {0, 1},
		"bob-self":     {0, 1},
		"bob-search":   {1, 0},
	}
	index := &memIndex{}
	m := matcher.New(emb, index, ledger).WithTopK(3)
	d := decision.New(ledger)

	out := &recordingPublisher{}
	h := startRouter(t, testTopics, m, d, out)

	h.send(t, testTopics.ProfilesCreated,
		`{"id":"alice","preference_group":"female","self_text":"alice-self","search_text":"alice-search"}`)
	// bob is only matched against alice once she is indexed.
	waitFor(t, "alice indexed", func() bool { return index.size(profile.GroupFemale) == 1 })
	h.send(t, testTopics.ProfilesCreated,
		`{"unique_id":"bob","gender":"Male","free_text_self":"bob-self","free_text_for_search":"bob-search"}`)

	waitFor(t, "pending both ways", func() bool {
		return ledger.status("bob", "alice") == relationship.Pending &&
			ledger.status("alice", "bob") == relationship.Pending
	})

	h.send(t, testTopics.Feedbacks, `{"actor_id":"bob","target_id":"alice","status":"liked"}`)
	waitFor(t, "notify to alice", func() bool { return len(out.messages()) == 1 })

	first := out.messages()[0]
	if first.topic != testTopics.NotifyLike {
		t.Fatalf("expected notify topic, got %s", first.topic)
	}
	var n event.Notify
	if err := json.Unmarshal(first.msg.Payload, &n); err != nil {
		t.Fatalf("decode notify: %v", err)
	}
	if n.UserID != "alice" || n.FromUserID != "bob" {
		t.Errorf("notify = %+v, want alice from bob", n)
	}

	h.send(t, testTopics.Feedbacks, `{"actor_id":"alice","target_id":"bob","status":"liked"}`)
	waitFor(t, "two matches", func() bool { return len(out.messages()) == 3 })

	got := map[string]string{}
	for _, p := range out.messages()[1:] {
		if p.topic != testTopics.MatchesCreated {
			t.Fatalf("expected match topic, got %s", p.topic)
		}
		var mt event.Match
		if err := json.Unmarshal(p.msg.Payload, &mt); err != nil {
			t.Fatalf("decode match: %v", err)
		}
		if mt.Reason != event.ReasonMutualLike {
			t.Errorf("reason = %q", mt.Reason)
		}
		got[mt.UserID] = mt.PartnerID
	}
	if got["alice"] != "bob" || got["bob"] != "alice" {
		t.Errorf("matches = %v, want one per party", got)
	}
	if ledger.status("alice", "bob") != relationship.Liked || ledger.status("bob", "alice") != relationship.Liked {
		t.Error("both sides must end up liked")
	}
}
