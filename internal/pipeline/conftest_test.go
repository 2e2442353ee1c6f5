package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/kailas-cloud/vecmatch/internal/domain/event"
	"github.com/kailas-cloud/vecmatch/internal/domain/profile"
	"github.com/kailas-cloud/vecmatch/internal/domain/relationship"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	"github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
)

func init() {
	metrics.RegisterPipelineMetrics()
}

var testTopics = Topics{
	ProfilesCreated: "profiles.created",
	Feedbacks:       "feedbacks",
	NotifyLike:      "notify.like",
	MatchesCreated:  "matches.created",
}

func feedback(actor, target string, s relationship.Status) event.Feedback {
	return event.Feedback{ActorID: actor, TargetID: target, Status: s}
}

type mockMatcher struct {
	processFn func(ctx context.Context, p profile.Profile) (matcher.Result, error)
}

func (m *mockMatcher) Process(ctx context.Context, p profile.Profile) (matcher.Result, error) {
	if m.processFn == nil {
		return matcher.Result{ProfileID: p.ID, Group: p.Group}, nil
	}
	return m.processFn(ctx, p)
}

type mockDecider struct {
	decideFn func(ctx context.Context, fb event.Feedback) (event.Outcome, error)
}

func (m *mockDecider) Decide(ctx context.Context, fb event.Feedback) (event.Outcome, error) {
	if m.decideFn == nil {
		return event.Outcome{}, nil
	}
	return m.decideFn(ctx, fb)
}

type published struct {
	topic string
	msg   *message.Message
}

// recordingPublisher captures publishes; failN makes the first N calls fail.
type recordingPublisher struct {
	mu     sync.Mutex
	sent   []published
	failN  int
	calls  int
	closed bool
}

var errPublish = errors.New("nats: timeout")

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failN {
		return errPublish
	}
	for _, m := range msgs {
		p.sent = append(p.sent, published{topic: topic, msg: m})
	}
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.sent))
	for i, s := range p.sent {
		out[i] = s.topic
	}
	return out
}

func (p *recordingPublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.sent...)
}
