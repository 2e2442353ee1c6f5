package vecmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/vecmatch/internal/db/redis"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	profilerepo "github.com/kailas-cloud/vecmatch/internal/repository/profile"
	relrepo "github.com/kailas-cloud/vecmatch/internal/repository/relationship"
	simrepo "github.com/kailas-cloud/vecmatch/internal/repository/similarity"
	openaiEmb "github.com/kailas-cloud/vecmatch/internal/transport/openai"
	candidatesuc "github.com/kailas-cloud/vecmatch/internal/usecase/candidates"
	decisionuc "github.com/kailas-cloud/vecmatch/internal/usecase/decision"
	embeddinguc "github.com/kailas-cloud/vecmatch/internal/usecase/embedding"
	matcheruc "github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultDimensions       = 1536
)

type store interface {
	Ping(ctx context.Context) error
	Close()
}

type profileMatcher interface {
	Process(ctx context.Context, p profile.Profile) (matcheruc.Result, error)
}

type feedbackDecider interface {
	Decide(ctx context.Context, fb event.Feedback) (event.Outcome, error)
}

type candidateReader interface {
	Relationships(ctx context.Context, id string) (relationship.Document, error)
	Pending(ctx context.Context, id string) ([]profile.Card, error)
}

// Client is the vecmatch SDK entry point. It is safe for concurrent use.
type Client struct {
	store      store
	matcher    profileMatcher
	decider    feedbackDecider
	candidates candidateReader
	obs        *observer
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{dimensions: defaultDimensions}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("vecmatch: database address required (use WithRedis or WithValkey)")
	}
	if cfg.dimensions <= 0 {
		return nil, fmt.Errorf("vecmatch: dimensions must be positive, got %d", cfg.dimensions)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("vecmatch: create store: %w", err)
	}

	ctx := context.Background()
	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		s.Close()
		return nil, fmt.Errorf("vecmatch: database not ready: %w", err)
	}

	return wireClient(s, cfg, obs), nil
}

func wireClient(s *dbRedis.Store, cfg *clientConfig, obs *observer) *Client {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	rel := relrepo.New(s)
	cards := profilerepo.New(s)
	sim := simrepo.New(s, cfg.dimensions).
		WithHNSW(simrepo.HNSWConfig{M: cfg.hnswM, EFConstruct: cfg.hnswEFConstruct}).
		WithCandidatePool(cfg.candidatePool).
		WithApproximate(cfg.approximate)

	emb := embeddinguc.NewInstrumentedEmbedder(buildEmbedder(cfg, logger), "sdk", modelName(cfg), cfg.dimensions, logger)

	return &Client{
		store:      s,
		matcher:    matcheruc.New(emb, sim, rel).WithTopK(cfg.topK).WithCards(cards),
		decider:    decisionuc.New(rel),
		candidates: candidatesuc.New(rel, cards),
		obs:        obs,
	}
}

// buildEmbedder: custom embedder wins, then OpenAI, then noop (reads and
// feedback work without one).
func buildEmbedder(cfg *clientConfig, logger *zap.Logger) domain.Embedder {
	switch {
	case cfg.embedder != nil:
		return adaptEmbedder(cfg.embedder)
	case cfg.openai != nil:
		return openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openai.apiKey,
			BaseURL:    cfg.openai.baseURL,
			Model:      cfg.openai.model,
			Dimensions: cfg.dimensions,
			Provider:   "openai",
			Logger:     logger,
		})
	default:
		return noopEmbedder{}
	}
}

func modelName(cfg *clientConfig) string {
	if cfg.embedder == nil && cfg.openai != nil {
		return cfg.openai.model
	}
	return "custom"
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// AddProfile embeds and indexes p, then pairs it with its best reciprocal
// candidates in both directions. Calling it again for the same profile is safe.
func (c *Client) AddProfile(ctx context.Context, p Profile) (res AddResult, err error) {
	defer func(start time.Time) { c.obs.observe("add_profile", start, err) }(time.Now())

	dp, err := profileToDomain(p)
	if err != nil {
		return AddResult{}, fmt.Errorf("add profile: %w", err)
	}
	r, err := c.matcher.Process(ctx, dp)
	if err != nil {
		return AddResult{}, fmt.Errorf("add profile %s: %w", p.ID, err)
	}
	return addResultFromDomain(r), nil
}

// Feedback applies one judgement and returns the events it produced.
// Delivering them is up to the caller.
func (c *Client) Feedback(ctx context.Context, f Feedback) (out Outcome, err error) {
	defer func(start time.Time) { c.obs.observe("feedback", start, err) }(time.Now())

	fb, err := feedbackToDomain(f)
	if err != nil {
		return Outcome{}, err
	}
	if err := fb.Validate(); err != nil {
		return Outcome{}, fmt.Errorf("feedback: %w", err)
	}

	o, err := c.decider.Decide(ctx, fb)
	if err != nil {
		return Outcome{}, fmt.Errorf("feedback %s: %w", fb, err)
	}
	return outcomeFromDomain(o), nil
}

// Relationships returns the liked, disliked and pending sets of a profile.
func (c *Client) Relationships(ctx context.Context, id string) (rel Relationships, err error) {
	defer func(start time.Time) { c.obs.observe("relationships", start, err) }(time.Now())

	doc, err := c.candidates.Relationships(ctx, id)
	if err != nil {
		return Relationships{}, fmt.Errorf("relationships %s: %w", id, err)
	}
	return relationshipsFromDomain(doc), nil
}

// Pending returns the cards of every candidate the profile has not judged yet.
func (c *Client) Pending(ctx context.Context, id string) (cards []Card, err error) {
	defer func(start time.Time) { c.obs.observe("pending", start, err) }(time.Now())

	dc, err := c.candidates.Pending(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("pending %s: %w", id, err)
	}
	cards = make([]Card, len(dc))
	for i, card := range dc {
		cards[i] = cardFromDomain(card)
	}
	return cards, nil
}
