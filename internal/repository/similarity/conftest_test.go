package similarity

import (
	"context"
	"sort"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
)

const testDim = 2

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn        func(ctx context.Context, key string, fields map[string]string) error
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchListFn  func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

// groupIndex answers KNN queries exactly and lists records in insertion order,
// like a FLAT index over one group.
type groupIndex struct {
	group   string
	records []match.Candidate
	lists   []db.ListQuery
}

func (g *groupIndex) add(id string, self, search []float32) {
	g.records = append(g.records, match.Candidate{ID: id, SelfVector: self, SearchVector: search})
}

func (g *groupIndex) store() *mockStore {
	return &mockStore{
		searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
			type hit struct {
				c   match.Candidate
				sim float64
			}
			hits := make([]hit, 0, len(g.records))
			for _, c := range g.records {
				v := c.SelfVector
				if q.Field == aliasSearch {
					v = c.SearchVector
				}
				hits = append(hits, hit{c: c, sim: match.Cosine(q.Vector, v)})
			}
			sort.SliceStable(hits, func(i, j int) bool { return hits[i].sim > hits[j].sim })
			if len(hits) > q.K {
				hits = hits[:q.K]
			}
			res := &db.SearchResult{Total: len(hits)}
			for _, h := range hits {
				res.Entries = append(res.Entries, entry(g.group, h.c.ID, h.c.SelfVector, h.c.SearchVector))
			}
			return res, nil
		},
		searchListFn: func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
			g.lists = append(g.lists, *q)
			res := &db.SearchResult{Total: len(g.records)}
			end := min(q.Offset+q.Limit, len(g.records))
			for _, c := range g.records[min(q.Offset, end):end] {
				res.Entries = append(res.Entries, entry(g.group, c.ID, c.SelfVector, c.SearchVector))
			}
			return res, nil
		},
	}
}

func entry(group, id string, self, search []float32) db.SearchEntry {
	return db.SearchEntry{
		Key: "vecmatch:idx:" + group + ":" + id,
		Fields: map[string]string{
			fieldID:           id,
			fieldSelfVector:   db.VectorToBlob(self),
			fieldSearchVector: db.VectorToBlob(search),
		},
	}
}
