package similarity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/match"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// DefaultCandidatePool is the KNN depth of each half-query when none is configured.
const DefaultCandidatePool = 20

// defaultListPage is how many records one exact-ranking page reads.
const defaultListPage = 500

// store is the consumer interface for the similarity index (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Repo keeps one FT index per preference group.
//
// Reciprocal scoring needs both stored vectors of every candidate, which a
// single KNN query cannot combine. Search runs two KNN queries (self against
// search, search against self) and re-scores the union with match.Rank. When
// either query fills its depth the union may miss a candidate that is good on
// both halves, so Search ranks the whole group page by page instead, unless
// approximate ranking was chosen.
type Repo struct {
	store       store
	dim         int
	hnsw        HNSWConfig
	pool        int
	page        int
	approximate bool

	ensured sync.Map // profile.Group -> struct{}
}

// New creates a similarity repository for vectors of the given dimension.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim, hnsw: HNSWConfig{M: 16, EFConstruct: 200}, pool: DefaultCandidatePool, page: defaultListPage}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// WithCandidatePool sets how many neighbours each half-query fetches.
func (r *Repo) WithCandidatePool(n int) *Repo {
	if n > 0 {
		r.pool = n
	}
	return r
}

// WithApproximate ranks only the union of the two KNN half-queries, even
// when they may have cut off a better balanced candidate.
func (r *Repo) WithApproximate(on bool) *Repo {
	r.approximate = on
	return r
}

// Dimensions returns the vector size the index expects.
func (r *Repo) Dimensions() int {
	return r.dim
}

// EnsureIndex creates the group index unless this process already did.
// An index created by another replica counts as success.
func (r *Repo) EnsureIndex(ctx context.Context, group profile.Group) error {
	if _, ok := r.ensured.Load(group); ok {
		return nil
	}

	def, err := buildIndex(group, r.dim, r.hnsw)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}

	r.ensured.Store(group, struct{}{})
	return nil
}

// Upsert stores both vectors of a profile in its own group. Last write wins.
func (r *Repo) Upsert(ctx context.Context, group profile.Group, id string, self, search []float32) error {
	if len(self) != r.dim || len(search) != r.dim {
		return domain.Permanentf("profile %s: got %d/%d, want %d: %w",
			id, len(self), len(search), r.dim, domain.ErrVectorDimMismatch)
	}

	fields := map[string]string{
		fieldID:           id,
		fieldSelfVector:   db.VectorToBlob(self),
		fieldSearchVector: db.VectorToBlob(search),
	}
	if err := r.store.HSet(ctx, recordKey(group, id), fields); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", group, id, err)
	}
	return nil
}

// Search returns the best k profiles of group for the query vectors,
// highest reciprocal score first. A group without an index yields nothing.
func (r *Repo) Search(
	ctx context.Context, group profile.Group, qSelf, qSearch []float32, k int,
) ([]match.Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(qSelf) != r.dim || len(qSearch) != r.dim {
		return nil, domain.Permanentf("query: got %d/%d, want %d: %w",
			len(qSelf), len(qSearch), r.dim, domain.ErrVectorDimMismatch)
	}

	depth := max(k, r.pool)
	var pool []match.Candidate
	truncated := false

	// qSelf looks for profiles searching for someone like us,
	// qSearch looks for profiles that are what we search for.
	halves := []struct {
		field  string
		vector []float32
	}{
		{aliasSearch, qSelf},
		{aliasSelf, qSearch},
	}
	for _, h := range halves {
		sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
			IndexName:    indexName(group),
			Field:        h.field,
			Vector:       h.vector,
			K:            depth,
			ReturnFields: recordFields,
		})
		if err != nil {
			if errors.Is(err, db.ErrIndexNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("search %s by %s: %w", group, h.field, err)
		}
		if sr != nil && len(sr.Entries) >= depth {
			truncated = true
		}
		pool = appendCandidates(pool, sr, group)
	}

	if !truncated || r.approximate {
		return match.Rank(qSelf, qSearch, pool, k), nil
	}
	return r.rankAll(ctx, group, qSelf, qSearch, k)
}

var recordFields = []string{fieldID, fieldSelfVector, fieldSearchVector}

// rankAll scores every record of the group, keeping only the running top k.
// Ties keep listing order.
func (r *Repo) rankAll(
	ctx context.Context, group profile.Group, qSelf, qSearch []float32, k int,
) ([]match.Scored, error) {
	var (
		top    []match.Candidate
		ranked []match.Scored
	)
	for offset := 0; ; offset += r.page {
		sr, err := r.store.SearchList(ctx, &db.ListQuery{
			IndexName:    indexName(group),
			Offset:       offset,
			Limit:        r.page,
			ReturnFields: recordFields,
		})
		if err != nil {
			if errors.Is(err, db.ErrIndexNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("list %s at %d: %w", group, offset, err)
		}

		pool := appendCandidates(top, sr, group)
		ranked = match.Rank(qSelf, qSearch, pool, k)
		top = keepRanked(pool, ranked)

		if sr == nil || len(sr.Entries) < r.page || offset+r.page >= sr.Total {
			return ranked, nil
		}
	}
}

// keepRanked returns the candidates of pool named by ranked, in ranked order.
func keepRanked(pool []match.Candidate, ranked []match.Scored) []match.Candidate {
	byID := make(map[string]int, len(pool))
	for i := len(pool) - 1; i >= 0; i-- {
		byID[pool[i].ID] = i
	}
	out := make([]match.Candidate, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, pool[byID[s.ID]])
	}
	return out
}

// appendCandidates decodes search hits, skipping records with unreadable vectors.
func appendCandidates(pool []match.Candidate, sr *db.SearchResult, group profile.Group) []match.Candidate {
	if sr == nil {
		return pool
	}
	prefix := recordPrefix(group)
	for _, e := range sr.Entries {
		id := e.Fields[fieldID]
		if id == "" {
			id = strings.TrimPrefix(e.Key, prefix)
		}
		self, err := db.BlobToVector(e.Fields[fieldSelfVector])
		if err != nil || len(self) == 0 {
			continue
		}
		search, err := db.BlobToVector(e.Fields[fieldSearchVector])
		if err != nil || len(search) == 0 {
			continue
		}
		pool = append(pool, match.Candidate{ID: id, SelfVector: self, SearchVector: search})
	}
	return pool
}
