package vecmatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	embedder Embedder
	openai   *openAIConfig

	dimensions      int
	topK            int
	candidatePool   int
	approximate     bool
	hnswM           int
	hnswEFConstruct int

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

type openAIConfig struct {
	apiKey  string
	baseURL string
	model   string
}

// WithRedis connects to a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey connects to a Valkey instance with valkey-search loaded.
// The wire protocol is the same as Redis.
func WithValkey(addr, password string) Option {
	return WithRedis(addr, password)
}

// WithCluster connects to several seed nodes, optionally with ACL credentials.
func WithCluster(addrs []string, username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
		c.username = username
		c.password = password
	})
}

// WithDB selects a logical database on a standalone server.
func WithDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithEmbedder sets a custom text embedding provider.
// Vectors must have the size given to WithDimensions.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds with an OpenAI-compatible API and sets the vector size.
// WithEmbedder takes precedence when both are given.
func WithOpenAI(apiKey, model string, dimensions int) Option {
	return optionFunc(func(c *clientConfig) {
		c.openai = &openAIConfig{apiKey: apiKey, model: model}
		c.dimensions = dimensions
	})
}

// WithOpenAIBaseURL points WithOpenAI at a compatible provider (Nebius, vLLM, ...).
func WithOpenAIBaseURL(url string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.openai == nil {
			c.openai = &openAIConfig{}
		}
		c.openai.baseURL = url
	})
}

// WithDimensions sets the vector size of the similarity index.
// Defaults to 1536 (text-embedding-3-small).
func WithDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.dimensions = dim
	})
}

// WithTopK sets how many candidates each new profile is paired with. Default: 3.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithCandidatePool sets the KNN depth of each half-query. Default: 20.
func WithCandidatePool(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.candidatePool = n
	})
}

// WithApproximateRanking ranks only the union of the two KNN half-queries.
// Faster on large groups, but a candidate that is good on both halves without
// topping either may be missed. Default: exact ranking.
func WithApproximateRanking() Option {
	return optionFunc(func(c *clientConfig) {
		c.approximate = true
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
