package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

type outcomeKey struct{}

// outcomeNote lets inner layers tell Observe how a message ended when the
// error alone does not say (blocked likes, swallowed permanent failures).
type outcomeNote struct {
	outcome string
}

func noteOutcome(ctx context.Context, outcome string) {
	if n, ok := ctx.Value(outcomeKey{}).(*outcomeNote); ok {
		n.outcome = outcome
	}
}

// Observe attaches a per-message logger to the message context and records
// one events_total sample and one duration sample per delivery.
func Observe(base *zap.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			start := time.Now()
			topic := message.SubscribeTopicFromCtx(msg.Context())

			log := base.With(
				zap.String("message_uuid", msg.UUID),
				zap.String("topic", topic),
				zap.String("handler", message.HandlerNameFromCtx(msg.Context())),
			)
			note := &outcomeNote{}
			ctx := logger.ContextWithLogger(msg.Context(), log)
			ctx = context.WithValue(ctx, outcomeKey{}, note)
			msg.SetContext(ctx)

			produced, err := h(msg)

			outcome := note.outcome
			switch {
			case err != nil && isPanic(err):
				outcome = metrics.OutcomePanic
				log.Error("Handler panicked", zap.Error(err))
			case err != nil:
				outcome = metrics.OutcomeRetry
				log.Warn("Event nacked for redelivery", zap.Error(err))
			case outcome == "":
				outcome = metrics.OutcomeOK
			}

			metrics.EventsTotal.WithLabelValues(topic, outcome).Inc()
			metrics.EventDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
			return produced, err
		}
	}
}

// Classify handles permanent failures. They are logged and counted; without a
// poison topic they are acked here, otherwise the error travels on to the
// poison queue middleware.
func Classify(poisonEnabled bool) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			produced, err := h(msg)
			if err == nil || !domain.IsPermanent(err) {
				return produced, err
			}

			ctx := msg.Context()
			noteOutcome(ctx, metrics.OutcomePermanent)
			logger.FromContext(ctx).Warn("Dropping event that can never succeed",
				zap.Bool("poisoned", poisonEnabled),
				zap.Error(err),
			)
			if poisonEnabled {
				return produced, err
			}
			return nil, nil
		}
	}
}

func isPanic(err error) bool {
	var rp middleware.RecoveredPanicError
	return errors.As(err, &rp)
}
