package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // consumers depend on the narrow sub-interfaces below
type Store interface {
	Pinger
	HashStore
	KVStore
	SetStore
	ScriptRunner
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore writes profile records and reads them back in batches.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// SetStore provides read access to Redis sets. Writes go through scripts so
// that membership moves between sets stay atomic.
type SetStore interface {
	SIsMember(ctx context.Context, key, member string) (bool, error)
	SMembersMulti(ctx context.Context, keys []string) ([][]string, error)
}

// ScriptRunner executes server-side Lua scripts.
type ScriptRunner interface {
	RunScript(ctx context.Context, script *Script, keys, args []string) (int64, error)
}

// IndexManager creates FT indexes. Indexes are never dropped by the worker.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
}

// Searcher provides vector search and full listing over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
}
