package relationship

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// memStore is an in-memory stand-in that evaluates both scripts the way Redis would.
type memStore struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}

	runScriptFn func(ctx context.Context, script *db.Script, keys, args []string) (int64, error)
	calls       []string
}

func newMemStore() *memStore {
	return &memStore{sets: map[string]map[string]struct{}{}}
}

func (m *memStore) RunScript(ctx context.Context, script *db.Script, keys, args []string) (int64, error) {
	if m.runScriptFn != nil {
		return m.runScriptFn(ctx, script, keys, args)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, script.Name)

	switch script {
	case transitionScript:
		m.srem(keys[1], args[0])
		m.srem(keys[2], args[0])
		return m.sadd(keys[0], args[0]), nil
	case pendingBulkScript:
		var added int64
		for _, id := range args {
			if m.has(keys[1], id) || m.has(keys[2], id) {
				continue
			}
			added += m.sadd(keys[0], id)
		}
		return added, nil
	}
	return 0, nil
}

func (m *memStore) SIsMember(_ context.Context, key, member string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.has(key, member), nil
}

func (m *memStore) SMembersMulti(_ context.Context, keys []string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = []string{}
		for id := range m.sets[k] {
			out[i] = append(out[i], id)
		}
		sort.Strings(out[i])
	}
	return out, nil
}

func (m *memStore) sadd(key, member string) int64 {
	s, ok := m.sets[key]
	if !ok {
		s = map[string]struct{}{}
		m.sets[key] = s
	}
	if _, ok := s[member]; ok {
		return 0
	}
	s[member] = struct{}{}
	return 1
}

func (m *memStore) srem(key, member string) {
	delete(m.sets[key], member)
}

func (m *memStore) has(key, member string) bool {
	_, ok := m.sets[key][member]
	return ok
}

// keysOf lists the non-empty sets, used to assert nothing leaked across actors.
func (m *memStore) keysOf(actor string) []string {
	var out []string
	for k, v := range m.sets {
		if len(v) > 0 && strings.Contains(k, "{"+actor+"}") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
