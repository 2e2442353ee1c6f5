package similarity

import (
	"fmt"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
)

// Hash fields and their index aliases.
const (
	fieldID           = "id"
	fieldSelfVector   = "self_vector"
	fieldSearchVector = "search_vector"

	aliasSelf   = "self"
	aliasSearch = "search"
)

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// buildIndex describes the FT index of one preference group:
// a TAG id plus two HNSW/COSINE vector fields.
func buildIndex(group profile.Group, dim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	graph := db.HNSW{M: hnsw.M, EFConstruct: hnsw.EFConstruct}
	def, err := db.NewIndex(indexName(group)).
		Prefix(recordPrefix(group)).
		Tag(fieldID).
		Vector(fieldSelfVector, dim, graph).As(aliasSelf).
		Vector(fieldSearchVector, dim, graph).As(aliasSearch).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index for %s: %w", group, err)
	}
	return def, nil
}

func indexName(group profile.Group) string {
	return fmt.Sprintf("%sidx:%s", domain.KeyPrefix, group)
}

func recordPrefix(group profile.Group) string {
	return indexName(group) + ":"
}

func recordKey(group profile.Group, id string) string {
	return recordPrefix(group) + id
}
