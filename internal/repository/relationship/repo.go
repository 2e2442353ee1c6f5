package relationship

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	domrel "github.com/kailas-cloud/vecmatch/internal/domain/relationship"
)

// store is the consumer interface for relationship sets (ISP).
type store interface {
	RunScript(ctx context.Context, script *db.Script, keys, args []string) (int64, error)
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// Repo keeps three disjoint sets per actor in Redis.
// Every mutation is a single Lua script, so concurrent writers on the same
// actor serialize at the server.
type Repo struct {
	store store
}

// New creates a relationship repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Transition moves target into the status set of actor and out of the other two.
func (r *Repo) Transition(ctx context.Context, actor, target string, status domrel.Status) error {
	if err := checkPair(actor, target); err != nil {
		return err
	}
	if !status.IsValid() {
		return domain.Permanentf("status %q: %w", status, domain.ErrMalformedEvent)
	}

	others := status.Others()
	keys := []string{setKey(actor, status), setKey(actor, others[0]), setKey(actor, others[1])}
	if _, err := r.store.RunScript(ctx, transitionScript, keys, []string{target}); err != nil {
		return fmt.Errorf("transition %s -> %s (%s): %w", actor, target, status, err)
	}
	return nil
}

// Has reports whether actor currently holds target under status.
func (r *Repo) Has(ctx context.Context, actor, target string, status domrel.Status) (bool, error) {
	ok, err := r.store.SIsMember(ctx, setKey(actor, status), target)
	if err != nil {
		return false, fmt.Errorf("sismember %s %s: %w", actor, status, err)
	}
	return ok, nil
}

// AddPendingBulk records targets as pending for actor without touching
// targets the actor already liked or disliked. Self and duplicate ids are skipped.
// Returns how many targets were newly added.
func (r *Repo) AddPendingBulk(ctx context.Context, actor string, targets []string) (int, error) {
	if strings.TrimSpace(actor) == "" {
		return 0, domain.Permanentf("actor id is required: %w", domain.ErrMalformedEvent)
	}

	args := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if t == "" || t == actor {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		args = append(args, t)
	}
	if len(args) == 0 {
		return 0, nil
	}

	keys := []string{
		setKey(actor, domrel.Pending),
		setKey(actor, domrel.Liked),
		setKey(actor, domrel.Disliked),
	}
	n, err := r.store.RunScript(ctx, pendingBulkScript, keys, args)
	if err != nil {
		return 0, fmt.Errorf("add pending for %s: %w", actor, err)
	}
	return int(n), nil
}

// Get returns the full relationship document of actor. Unknown actors get empty sets.
func (r *Repo) Get(ctx context.Context, actor string) (domrel.Document, error) {
	keys := make([]string, len(domrel.Statuses))
	for i, s := range domrel.Statuses {
		keys[i] = setKey(actor, s)
	}

	sets, err := r.store.SMembersMulti(ctx, keys)
	if err != nil {
		return domrel.Document{}, fmt.Errorf("read relationships of %s: %w", actor, err)
	}

	doc := domrel.Document{ProfileID: actor}
	for i, s := range domrel.Statuses {
		var members []string
		if i < len(sets) {
			members = sets[i]
		}
		if members == nil {
			members = []string{}
		}
		sort.Strings(members)
		switch s {
		case domrel.Liked:
			doc.Liked = members
		case domrel.Disliked:
			doc.Disliked = members
		case domrel.Pending:
			doc.Pending = members
		}
	}
	return doc, nil
}

func checkPair(actor, target string) error {
	if strings.TrimSpace(actor) == "" || strings.TrimSpace(target) == "" {
		return domain.Permanentf("actor and target are required: %w", domain.ErrMalformedEvent)
	}
	if actor == target {
		return domain.Permanentf("%w: %w", domain.ErrSelfRelation, domain.ErrMalformedEvent)
	}
	return nil
}

// setKey is hash-tagged on the actor so a script touches a single cluster slot.
func setKey(actor string, status domrel.Status) string {
	return fmt.Sprintf("%srel:{%s}:%s", domain.KeyPrefix, actor, status)
}
