package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/config"
	dbRedis "github.com/kailas-cloud/vecmatch/internal/db/redis"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	logpkg "github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	"github.com/kailas-cloud/vecmatch/internal/pipeline"
	"github.com/kailas-cloud/vecmatch/internal/repository/embcache"
	profilerepo "github.com/kailas-cloud/vecmatch/internal/repository/profile"
	relrepo "github.com/kailas-cloud/vecmatch/internal/repository/relationship"
	simrepo "github.com/kailas-cloud/vecmatch/internal/repository/similarity"
	"github.com/kailas-cloud/vecmatch/internal/supervisor"
	"github.com/kailas-cloud/vecmatch/internal/supervisor/services"
	chiTransport "github.com/kailas-cloud/vecmatch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/vecmatch/internal/transport/openai"
	candidatesuc "github.com/kailas-cloud/vecmatch/internal/usecase/candidates"
	decisionuc "github.com/kailas-cloud/vecmatch/internal/usecase/decision"
	embeddinguc "github.com/kailas-cloud/vecmatch/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
	matcheruc "github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
	"github.com/kailas-cloud/vecmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting vecmatch worker",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("broker_url", cfg.Broker.URL),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterHTTPMetrics()
	metrics.RegisterPipelineMetrics()

	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", cfg.Embedding.Cache.Enabled),
	)

	// Repositories
	relRepo := relrepo.New(store)
	cardRepo := profilerepo.New(store)
	simRepo := simrepo.New(store, cfg.Embedding.Dimensions).
		WithHNSW(simrepo.HNSWConfig{M: cfg.Matching.HNSWM, EFConstruct: cfg.Matching.HNSWEFConstruct}).
		WithCandidatePool(cfg.Matching.CandidatePool).
		WithApproximate(cfg.Matching.Approximate)

	// Use cases
	matcherSvc := matcheruc.New(embedder, simRepo, relRepo).
		WithTopK(cfg.Matching.TopK).
		WithCards(cardRepo)
	decisionSvc := decisionuc.New(relRepo)
	candidatesSvc := candidatesuc.New(relRepo, cardRepo)

	// Broker control connection: stream provisioning and readiness.
	nc, err := natsgo.Connect(cfg.Broker.URL,
		natsgo.Name("vecmatch-control"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.Broker.MaxReconnects),
		natsgo.ReconnectWait(cfg.Broker.ReconnectWait),
	)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	topics := pipeline.Topics{
		ProfilesCreated: cfg.Broker.Topics.ProfilesCreated,
		Feedbacks:       cfg.Broker.Topics.Feedbacks,
		NotifyLike:      cfg.Broker.Topics.NotifyLike,
		MatchesCreated:  cfg.Broker.Topics.MatchesCreated,
		Poison:          cfg.Broker.Topics.Poison,
	}

	if cfg.Broker.StreamName != "" {
		if err := ensureStream(ctx, nc, cfg.Broker, topics); err != nil {
			logger.Fatal("Failed to provision JetStream stream", zap.Error(err))
		}
		logger.Info("JetStream stream ready",
			zap.String("stream", cfg.Broker.StreamName),
			zap.Strings("subjects", topics.Subjects()),
		)
	}

	wlog := logpkg.NewWatermillAdapter(logger)
	natsPub, err := pipeline.NewNATSPublisher(pipeline.PublisherConfig{
		URL:           cfg.Broker.URL,
		MaxReconnects: cfg.Broker.MaxReconnects,
		ReconnectWait: cfg.Broker.ReconnectWait,
		AutoProvision: cfg.Broker.StreamName == "",
	}, wlog)
	if err != nil {
		logger.Fatal("Failed to create NATS publisher", zap.Error(err))
	}
	publisher := pipeline.NewPublisher(natsPub, pipeline.NewCircuitBreaker(pipeline.BreakerConfig{
		Name:             "nats-publisher",
		MaxRequests:      cfg.Broker.Breaker.MaxRequests,
		Interval:         cfg.Broker.Breaker.Interval,
		Timeout:          cfg.Broker.Breaker.Timeout,
		FailureThreshold: cfg.Broker.Breaker.FailureThreshold,
	}, logger))
	defer func() { _ = publisher.Close() }()

	subCfg := pipeline.SubscriberConfig{
		URL:              cfg.Broker.URL,
		QueueGroup:       cfg.Broker.QueueGroup,
		DurableName:      cfg.Broker.DurableName,
		StreamName:       cfg.Broker.StreamName,
		SubscribersCount: cfg.Broker.SubscribersCount,
		MaxAckPending:    cfg.Broker.MaxAckPending,
		MaxDeliver:       cfg.Broker.MaxDeliver,
		AckWait:          cfg.Broker.AckWait,
		CloseTimeout:     cfg.Broker.CloseTimeout,
		MaxReconnects:    cfg.Broker.MaxReconnects,
		ReconnectWait:    cfg.Broker.ReconnectWait,
	}

	routerCfg := pipeline.RouterConfig{
		CloseTimeout:         cfg.Broker.CloseTimeout,
		RetryMaxRetries:      cfg.Broker.Retry.MaxRetries,
		RetryInitialInterval: cfg.Broker.Retry.InitialInterval,
		RetryMaxInterval:     cfg.Broker.Retry.MaxInterval,
		RetryMultiplier:      cfg.Broker.Retry.Multiplier,
	}
	// Closing a watermill router closes its subscriber, so each (re)start
	// gets its own. The durable consumer keeps the position.
	newRouter := func() (services.Router, error) {
		sub, err := pipeline.NewNATSSubscriber(subCfg, wlog)
		if err != nil {
			return nil, err //nolint:wrapcheck // already wrapped
		}
		r, err := pipeline.NewRouter(routerCfg, pipeline.Deps{
			Topics:     topics,
			Subscriber: sub,
			Publisher:  publisher,
			Matcher:    matcherSvc,
			Decider:    decisionSvc,
		}, logger)
		if err != nil {
			_ = sub.Close()
			return nil, err //nolint:wrapcheck // already wrapped
		}
		return r, nil
	}

	healthSvc := healthuc.New(store, embedder).WithBroker(pipeline.NewBrokerHealth(nc))

	server := chiTransport.NewServer(candidatesSvc, healthSvc, logger)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	tree := supervisor.NewTree(logger, supervisor.DefaultTreeConfig())
	tree.AddPipelineService(services.NewPipelineService(newRouter))
	tree.AddAPIService(services.NewHTTPServerService(srv, time.Duration(cfg.HTTP.ShutdownSec)*time.Second))

	// Graceful shutdown
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting services",
		zap.String("addr", addr),
		zap.String("profiles_topic", topics.ProfilesCreated),
		zap.String("feedback_topic", topics.Feedbacks),
		zap.Bool("poison_queue", topics.Poison != ""),
	)
	if err := tree.Serve(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Supervisor stopped with error", zap.Error(err))
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logger.Warn("Services did not stop in time", zap.Int("count", len(report)))
	}
	logger.Info("Worker stopped gracefully")
}

// ensureStream provisions the shared stream on the control connection.
func ensureStream(ctx context.Context, nc *natsgo.Conn, cfg config.BrokerConfig, topics pipeline.Topics) error {
	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}
	si, err := pipeline.NewStreamInitializer(js, pipeline.StreamConfig{
		Name:            cfg.StreamName,
		Subjects:        topics.Subjects(),
		DuplicateWindow: cfg.StreamDuplicates,
		MaxAge:          cfg.StreamMaxAge,
	})
	if err != nil {
		return err //nolint:wrapcheck // config error, already descriptive
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := si.EnsureStream(ctx); err != nil {
		return err //nolint:wrapcheck // wrapped by EnsureStream
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented
func buildEmbedder(cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger) *embeddinguc.InstrumentedEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.Cache.Enabled {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).
			WithModel(cfg.Model).
			WithTTL(cfg.Cache.TTL)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, cfg.Dimensions, logger)
}
