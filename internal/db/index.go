package db

import (
	"errors"
	"fmt"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

// DistanceCosine is cosine distance. Reciprocal scores are cosine based, so
// every profile index uses it.
const DistanceCosine DistanceMetric = "COSINE"

// IndexFieldType enumerates supported FT index field types.
type IndexFieldType int

const (
	// IndexFieldTag is a tag field.
	IndexFieldTag IndexFieldType = iota
	// IndexFieldVector is an HNSW vector field.
	IndexFieldVector
)

// HNSW tunes the graph of a vector field. Zero values leave the server default.
type HNSW struct {
	M           int // max edges per node
	EFConstruct int // build-time candidate list size
}

// IndexField is one attribute of a hash-backed FT index.
type IndexField struct {
	Name     string
	Alias    string // AS alias in FT.CREATE SCHEMA
	Type     IndexFieldType
	Dim      int
	Distance DistanceMetric
	HNSW     HNSW
}

// IndexDefinition is an FT index over the hashes under Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the definition can be sent to FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !validIndexName(idx.Name) {
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		attr := f.Name
		if f.Alias != "" {
			attr = f.Alias
		}
		if _, dup := seen[attr]; dup {
			return fmt.Errorf("duplicate field name: %s", attr)
		}
		seen[attr] = struct{}{}

		if f.Type == IndexFieldVector && f.Dim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
	}
	return nil
}

// validIndexName accepts [a-zA-Z0-9_:-]+, the characters of vecmatch key prefixes.
func validIndexName(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == ':' || r == '-':
		default:
			return false
		}
	}
	return s != ""
}
