package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// Metadata keys carrying the JetStream position of an inbound message.
const (
	MetaStream         = "jetstream_stream"
	MetaStreamSequence = "jetstream_sequence"
)

// SubscriberConfig holds JetStream durable consumer settings.
type SubscriberConfig struct {
	URL              string
	QueueGroup       string
	DurableName      string
	StreamName       string
	SubscribersCount int
	MaxAckPending    int
	MaxDeliver       int
	AckWait          time.Duration
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration
}

// NewNATSSubscriber creates a watermill JetStream subscriber with a durable,
// queue-grouped consumer per topic. Acks are synchronous so a message is only
// gone once the server confirmed it.
func NewNATSSubscriber(cfg SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWait),
		natsgo.DeliverAll(),
	}

	autoProvision := true
	if cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
		autoProvision = false
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:               cfg.URL,
		QueueGroupPrefix:  cfg.QueueGroup,
		SubjectCalculator: topicSubject,
		SubscribersCount:  cfg.SubscribersCount,
		AckWaitTimeout:    cfg.AckWait,
		CloseTimeout:      cfg.CloseTimeout,
		NatsOptions:       natsOpts,
		Unmarshaler:       sequenceUnmarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision:     autoProvision,
			AckAsync:          false,
			SubscribeOptions:  subOpts,
			DurablePrefix:     cfg.DurableName,
			DurableCalculator: consumerName,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}

var consumerNameReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", "\t", "_")

// consumerName derives the durable consumer (and deliver group) for one topic.
// A JetStream consumer is bound to a single filter subject, so topics sharing a
// stream each need their own.
func consumerName(prefix, topic string) string {
	name := consumerNameReplacer.Replace(topic)
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

// topicSubject gives every topic its own deliver group. Without a prefix the
// consumer is not queue-grouped.
func topicSubject(queueGroupPrefix, topic string) *wmNats.SubjectDetail {
	d := &wmNats.SubjectDetail{Primary: topic}
	if queueGroupPrefix != "" {
		d.QueueGroup = consumerName(queueGroupPrefix, topic)
	}
	return d
}

// sequenceUnmarshaler decodes like NATSMarshaler and records the stream
// position, so messages without a producer UUID still have a stable identity
// across redeliveries.
type sequenceUnmarshaler struct{}

func (sequenceUnmarshaler) Unmarshal(natsMsg *natsgo.Msg) (*message.Message, error) {
	msg, err := (&wmNats.NATSMarshaler{}).Unmarshal(natsMsg)
	if err != nil {
		return nil, err //nolint:wrapcheck // watermill logs it with the subject
	}
	if meta, err := natsMsg.Metadata(); err == nil && meta.Sequence.Stream > 0 {
		msg.Metadata.Set(MetaStream, meta.Stream)
		msg.Metadata.Set(MetaStreamSequence, strconv.FormatUint(meta.Sequence.Stream, 10))
	}
	return msg, nil
}
