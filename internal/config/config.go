package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the vecmatch worker configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Broker    BrokerConfig    `yaml:"broker"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Matching  MatchingConfig  `yaml:"matching"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds ops API authentication settings. Empty list disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds ops HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Redis / Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// TopicsConfig names every subject the pipeline touches.
type TopicsConfig struct {
	ProfilesCreated string `yaml:"profiles_created"`
	Feedbacks       string `yaml:"feedbacks"`
	NotifyLike      string `yaml:"notify_like"`
	MatchesCreated  string `yaml:"matches_created"`
	Poison          string `yaml:"poison"` // пусто = permanent-ошибки только логируются
}

// RetryConfig holds router-level retry settings for transient failures.
type RetryConfig struct {
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
}

// BreakerConfig holds circuit breaker settings for outbound publishing.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

// BrokerConfig holds NATS JetStream settings.
type BrokerConfig struct {
	URL              string        `yaml:"url"`
	Topics           TopicsConfig  `yaml:"topics"`
	StreamName       string        `yaml:"stream_name"` // пусто = watermill создаёт stream на каждый topic
	StreamDuplicates time.Duration `yaml:"stream_duplicate_window"`
	StreamMaxAge     time.Duration `yaml:"stream_max_age"`
	QueueGroup       string        `yaml:"queue_group"`
	DurableName      string        `yaml:"durable_name"`
	SubscribersCount int           `yaml:"subscribers_count"`
	MaxAckPending    int           `yaml:"max_ack_pending"`
	MaxDeliver       int           `yaml:"max_deliver"`
	AckWait          time.Duration `yaml:"ack_wait"`
	CloseTimeout     time.Duration `yaml:"close_timeout"`
	MaxReconnects    int           `yaml:"max_reconnects"`
	ReconnectWait    time.Duration `yaml:"reconnect_wait"`
	Retry            RetryConfig   `yaml:"retry"`
	Breaker          BreakerConfig `yaml:"breaker"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider   string      `yaml:"provider"` // metrics label, e.g. "openai", "nebius"
	APIKey     string      `yaml:"api_key"`
	BaseURL    string      `yaml:"base_url"`
	Model      string      `yaml:"model"`
	Dimensions int         `yaml:"dimensions"`
	Cache      CacheConfig `yaml:"cache"`
}

// CacheConfig controls the Redis embedding cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"` // 0 = no expiry
}

// MatchingConfig holds candidate search settings.
type MatchingConfig struct {
	TopK            int  `yaml:"top_k"`
	CandidatePool   int  `yaml:"candidate_pool"`
	HNSWM           int  `yaml:"hnsw_m"`
	HNSWEFConstruct int  `yaml:"hnsw_ef_construction"`
	Approximate     bool `yaml:"approximate"` // rank the KNN union only, skip the full listing
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, decodes it and applies defaults and validation.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.Broker.applyDefaults()

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}

	if c.Matching.TopK <= 0 {
		c.Matching.TopK = 3
	}
	if c.Matching.CandidatePool <= 0 {
		c.Matching.CandidatePool = 20
	}
	if c.Matching.HNSWM <= 0 {
		c.Matching.HNSWM = 16
	}
	if c.Matching.HNSWEFConstruct <= 0 {
		c.Matching.HNSWEFConstruct = 200
	}
}

func (b *BrokerConfig) applyDefaults() {
	t := &b.Topics
	if t.ProfilesCreated == "" {
		t.ProfilesCreated = "profiles.created"
	}
	if t.Feedbacks == "" {
		t.Feedbacks = "feedbacks"
	}
	if t.NotifyLike == "" {
		t.NotifyLike = "notify.like"
	}
	if t.MatchesCreated == "" {
		t.MatchesCreated = "matches.created"
	}
	if b.StreamDuplicates <= 0 {
		b.StreamDuplicates = 2 * time.Minute
	}
	if b.StreamMaxAge <= 0 {
		b.StreamMaxAge = 7 * 24 * time.Hour
	}
	if b.QueueGroup == "" {
		b.QueueGroup = "vecmatch"
	}
	if b.DurableName == "" {
		b.DurableName = "vecmatch"
	}
	// One subscriber and one in-flight message per topic keep per-recipient order.
	if b.SubscribersCount <= 0 {
		b.SubscribersCount = 1
	}
	if b.MaxAckPending <= 0 {
		b.MaxAckPending = 1
	}
	if b.MaxDeliver == 0 {
		b.MaxDeliver = 10
	}
	if b.AckWait <= 0 {
		b.AckWait = 30 * time.Second
	}
	if b.CloseTimeout <= 0 {
		b.CloseTimeout = 30 * time.Second
	}
	if b.MaxReconnects == 0 {
		b.MaxReconnects = -1
	}
	if b.ReconnectWait <= 0 {
		b.ReconnectWait = 2 * time.Second
	}
	if b.Retry.MaxRetries <= 0 {
		b.Retry.MaxRetries = 3
	}
	if b.Retry.InitialInterval <= 0 {
		b.Retry.InitialInterval = 100 * time.Millisecond
	}
	if b.Retry.MaxInterval <= 0 {
		b.Retry.MaxInterval = 5 * time.Second
	}
	if b.Retry.Multiplier <= 0 {
		b.Retry.Multiplier = 2.0
	}
	if b.Breaker.MaxRequests == 0 {
		b.Breaker.MaxRequests = 1
	}
	if b.Breaker.Interval <= 0 {
		b.Breaker.Interval = time.Minute
	}
	if b.Breaker.Timeout <= 0 {
		b.Breaker.Timeout = 30 * time.Second
	}
	if b.Breaker.FailureThreshold == 0 {
		b.Breaker.FailureThreshold = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Broker.URL == "" {
		return fmt.Errorf("broker.url is required")
	}
	if err := c.Broker.Topics.validate(); err != nil {
		return err
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
	}
	if c.Matching.CandidatePool < c.Matching.TopK {
		return fmt.Errorf(
			"matching.candidate_pool (%d) must be >= matching.top_k (%d)",
			c.Matching.CandidatePool, c.Matching.TopK,
		)
	}
	return nil
}

func (t TopicsConfig) validate() error {
	seen := make(map[string]string, 5)
	for name, topic := range map[string]string{
		"profiles_created": t.ProfilesCreated,
		"feedbacks":        t.Feedbacks,
		"notify_like":      t.NotifyLike,
		"matches_created":  t.MatchesCreated,
		"poison":           t.Poison,
	} {
		if topic == "" {
			continue
		}
		if other, dup := seen[topic]; dup {
			return fmt.Errorf("broker.topics.%s and broker.topics.%s share subject %q", name, other, topic)
		}
		seen[topic] = name
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
