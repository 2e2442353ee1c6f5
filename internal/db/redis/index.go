package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// CreateIndex runs FT.CREATE for a hash-backed index. An existing index of
// the same name yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// createArgs renders: name ON HASH [PREFIX n p...] SCHEMA field...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err //nolint:wrapcheck // validation message is descriptive
	}

	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		f, err := schemaArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, f...)
	}
	return args, nil
}

func schemaArgs(f *db.IndexField) ([]string, error) {
	args := []string{f.Name}
	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.IndexFieldTag:
		return append(args, "TAG"), nil
	case db.IndexFieldVector:
		distance := f.Distance
		if distance == "" {
			distance = db.DistanceCosine
		}
		attrs := []string{
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.Dim),
			"DISTANCE_METRIC", string(distance),
		}
		if f.HNSW.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.HNSW.M))
		}
		if f.HNSW.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.HNSW.EFConstruct))
		}
		args = append(args, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
		return append(args, attrs...), nil
	default:
		return nil, fmt.Errorf("field %s: unknown type %d", f.Name, f.Type)
	}
}
