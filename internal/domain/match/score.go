package match

import (
	"math"
	"sort"
)

// scoreOffset keeps the reciprocal score non-negative.
const scoreOffset = 1.0

// Candidate is an indexed profile together with both of its stored vectors.
type Candidate struct {
	ID           string
	SelfVector   []float32
	SearchVector []float32
}

// Scored is a candidate id with its reciprocal score.
type Scored struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Cosine returns the cosine similarity of a and b.
// Zero vectors and length mismatches score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Reciprocal scores how well a querying profile and a candidate suit each other:
// how well the querier's self-description answers what the candidate searches for,
// plus how well the candidate's self-description answers what the querier searches for.
func Reciprocal(qSelf, qSearch []float32, c *Candidate) float64 {
	return Cosine(qSelf, c.SearchVector) + Cosine(qSearch, c.SelfVector) + scoreOffset
}

// Rank scores every candidate and returns the best k, highest first.
// Duplicate ids keep their first occurrence; equal scores keep input order.
func Rank(qSelf, qSearch []float32, pool []Candidate, k int) []Scored {
	if k <= 0 || len(pool) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(pool))
	scored := make([]Scored, 0, len(pool))
	for i := range pool {
		c := &pool[i]
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		scored = append(scored, Scored{ID: c.ID, Score: Reciprocal(qSelf, qSearch, c)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// IDs projects scored candidates to their ids, preserving order.
func IDs(s []Scored) []string {
	ids := make([]string, len(s))
	for i := range s {
		ids[i] = s[i].ID
	}
	return ids
}
