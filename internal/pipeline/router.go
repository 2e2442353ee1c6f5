package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/logger"
)

// Handler names, also used as the handler label in logs.
const (
	HandlerProfiles = "profiles-created"
	HandlerFeedback = "feedback"
)

// RouterConfig holds router-level delivery settings.
type RouterConfig struct {
	// CloseTimeout is how long Close waits for in-flight handlers.
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns conservative delivery settings.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Deps are the collaborators the router drives.
type Deps struct {
	Topics     Topics
	Subscriber message.Subscriber
	// Publisher carries match and notification events, and poisoned messages
	// when Topics.Poison is set.
	Publisher message.Publisher
	Matcher   ProfileMatcher
	Decider   FeedbackDecider
}

// Router runs both pipeline handlers on one watermill router.
type Router struct {
	router *message.Router
	logger *zap.Logger
}

// NewRouter builds the router. Middleware, outermost first:
// Observe, Recoverer, Retry, PoisonQueue (if configured), Classify.
func NewRouter(cfg RouterConfig, deps Deps, l *zap.Logger) (*Router, error) {
	if l == nil {
		l = zap.NewNop()
	}
	if deps.Subscriber == nil || deps.Publisher == nil {
		return nil, errors.New("subscriber and publisher are required")
	}
	if deps.Matcher == nil || deps.Decider == nil {
		return nil, errors.New("matcher and decider are required")
	}
	if deps.Topics.ProfilesCreated == "" || deps.Topics.Feedbacks == "" {
		return nil, errors.New("inbound topics are required")
	}

	wlog := logger.NewWatermillAdapter(l)
	wmRouter, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wlog)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	wmRouter.AddMiddleware(Observe(l))
	wmRouter.AddMiddleware(middleware.Recoverer)

	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		ShouldRetry: func(p middleware.RetryParams) bool {
			return !domain.IsPermanent(p.Err)
		},
		Logger: wlog,
	}
	wmRouter.AddMiddleware(retry.Middleware)

	poisonEnabled := deps.Topics.Poison != ""
	if poisonEnabled {
		poison, err := middleware.PoisonQueueWithFilter(deps.Publisher, deps.Topics.Poison, domain.IsPermanent)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poison)
	}
	wmRouter.AddMiddleware(Classify(poisonEnabled))

	h := NewHandlers(deps.Matcher, deps.Decider, deps.Publisher, deps.Topics)
	wmRouter.AddConsumerHandler(HandlerProfiles, deps.Topics.ProfilesCreated, deps.Subscriber, h.HandleProfile)
	wmRouter.AddConsumerHandler(HandlerFeedback, deps.Topics.Feedbacks, deps.Subscriber, h.HandleFeedback)

	return &Router{router: wmRouter, logger: l}, nil
}

// Run blocks until ctx is cancelled or Close is called.
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("Pipeline router starting")
	if err := r.router.Run(ctx); err != nil {
		return fmt.Errorf("run router: %w", err)
	}
	return nil
}

// Running is closed once every handler subscribed.
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

// IsRunning reports whether the router is consuming.
func (r *Router) IsRunning() bool {
	return r.router.IsRunning()
}

// Close stops pulling new messages and waits CloseTimeout for in-flight ones.
// Messages still running after that are not acked and will be redelivered.
// The subscriber is closed with it.
func (r *Router) Close() error {
	if err := r.router.Close(); err != nil {
		return fmt.Errorf("close router: %w", err)
	}
	return nil
}
