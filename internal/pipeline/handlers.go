package pipeline

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

// Handlers adapts the use cases to watermill handler functions.
// Returning nil acks the message, returning an error nacks it.
type Handlers struct {
	matcher ProfileMatcher
	decider FeedbackDecider
	pub     message.Publisher
	topics  Topics
}

// NewHandlers wires the use cases to the outbound publisher.
func NewHandlers(m ProfileMatcher, d FeedbackDecider, pub message.Publisher, topics Topics) *Handlers {
	return &Handlers{matcher: m, decider: d, pub: pub, topics: topics}
}

// HandleProfile runs the candidate matcher for one profile-created event.
func (h *Handlers) HandleProfile(msg *message.Message) error {
	ctx := msg.Context()

	p, err := DecodeProfile(msg.Payload)
	if err != nil {
		return err
	}

	res, err := h.matcher.Process(ctx, p)
	if err != nil {
		return err //nolint:wrapcheck // use case errors carry their own context
	}

	metrics.CandidatesRecordedTotal.Add(float64(res.Recorded))
	logger.FromContext(ctx).Info("Profile indexed",
		zap.String("profile_id", res.ProfileID),
		zap.String("group", string(res.Group)),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("recorded", res.Recorded),
	)
	return nil
}

// HandleFeedback applies one feedback event and publishes what it produced.
// The inbound message is acked only after every outbound publish succeeded.
func (h *Handlers) HandleFeedback(msg *message.Message) error {
	ctx := msg.Context()
	log := logger.FromContext(ctx)

	fb, err := DecodeFeedback(msg.Payload)
	if err != nil {
		return err
	}

	out, err := h.decider.Decide(ctx, fb)
	if err != nil {
		return err //nolint:wrapcheck // use case errors carry their own context
	}
	if out.Blocked {
		noteOutcome(ctx, metrics.OutcomeBlocked)
		return nil
	}

	outbound, err := BuildOutbound(h.topics, msg, out)
	if err != nil {
		return err
	}
	for _, o := range outbound {
		if err := h.pub.Publish(o.Topic, o.Message); err != nil {
			return err //nolint:wrapcheck // wrapped by Publisher
		}
	}

	if len(outbound) > 0 {
		log.Info("Feedback applied",
			zap.Stringer("feedback", fb),
			zap.Int("matches", len(out.Matches)),
			zap.Int("notifications", len(out.Notifications)),
		)
	} else {
		log.Debug("Feedback applied", zap.Stringer("feedback", fb))
	}
	return nil
}
