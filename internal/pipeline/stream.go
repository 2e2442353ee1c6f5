package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the part of jetstream.JetStream the initializer needs.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// StreamConfig describes the shared stream carrying every pipeline subject.
type StreamConfig struct {
	Name     string
	Subjects []string
	// DuplicateWindow bounds how long Nats-Msg-Id dedup remembers a message.
	DuplicateWindow time.Duration
	MaxAge          time.Duration
}

// StreamInitializer creates or updates the shared stream on startup.
type StreamInitializer struct {
	js  JetStreamContext
	cfg StreamConfig
}

// NewStreamInitializer validates cfg.
func NewStreamInitializer(js JetStreamContext, cfg StreamConfig) (*StreamInitializer, error) {
	if js == nil {
		return nil, errors.New("JetStream context required")
	}
	if cfg.Name == "" {
		return nil, errors.New("stream name required")
	}
	if len(cfg.Subjects) == 0 {
		return nil, errors.New("stream needs at least one subject")
	}
	return &StreamInitializer{js: js, cfg: cfg}, nil
}

// EnsureStream creates the stream, or updates it when it already exists.
func (s *StreamInitializer) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:       s.cfg.Name,
		Subjects:   s.cfg.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     s.cfg.MaxAge,
		Duplicates: s.cfg.DuplicateWindow,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}

	_, err := s.js.Stream(ctx, s.cfg.Name)
	switch {
	case err == nil:
		stream, err := s.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", s.cfg.Name, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := s.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", s.cfg.Name, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("check stream %s: %w", s.cfg.Name, err)
	}
}

// Subjects lists the non-empty topics, deduplicated, in a stable order.
func (t Topics) Subjects() []string {
	seen := make(map[string]struct{}, 5)
	out := make([]string, 0, 5)
	for _, s := range []string{t.ProfilesCreated, t.Feedbacks, t.NotifyLike, t.MatchesCreated, t.Poison} {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ConnStatus is satisfied by *nats.Conn.
type ConnStatus interface {
	Status() natsgo.Status
}

// BrokerHealth reports whether the control connection to NATS is up.
type BrokerHealth struct {
	conn ConnStatus
}

// NewBrokerHealth wraps a NATS connection.
func NewBrokerHealth(conn ConnStatus) *BrokerHealth {
	return &BrokerHealth{conn: conn}
}

// Healthy implements health.BrokerChecker.
func (b *BrokerHealth) Healthy(_ context.Context) error {
	if st := b.conn.Status(); st != natsgo.CONNECTED {
		return fmt.Errorf("nats connection is %s", st)
	}
	return nil
}
