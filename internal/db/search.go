package db

// DefaultVectorField is the vector attribute searched when KNNQuery.Field is empty.
const DefaultVectorField = "vector"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Field        string // vector attribute (alias) to search; defaults to DefaultVectorField
	Vector       []float32
	K            int
	ReturnFields []string
	RawScores    bool // return __vector_score as-is instead of converting distance to similarity
}

// ListQuery pages through every document of an index.
type ListQuery struct {
	IndexName    string
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
