package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/kailas-cloud/vecmatch/internal/domain/event"
)

// Metadata keys set on outbound messages.
const (
	MetaPartitionKey = "partition_key"
	MetaReason       = "reason"
	MetaCausationID  = "causation_id"
)

// outboundNamespace seeds deterministic outbound UUIDs.
var outboundNamespace = uuid.MustParse("5b0f3a8e-6c1d-4f1e-9a57-2f2e1f6a9c40")

// Topics names the subjects the pipeline reads and writes.
type Topics struct {
	ProfilesCreated string
	Feedbacks       string
	NotifyLike      string
	MatchesCreated  string
	Poison          string
}

// Outbound is one message bound for a topic.
type Outbound struct {
	Topic   string
	Message *message.Message
}

// BuildOutbound turns a decision outcome into messages. A redelivered inbound
// message yields the same UUIDs, which JetStream deduplicates via Nats-Msg-Id.
func BuildOutbound(topics Topics, causation *message.Message, out event.Outcome) ([]Outbound, error) {
	seed := causationSeed(causation)
	res := make([]Outbound, 0, len(out.Matches)+len(out.Notifications))

	for _, m := range out.Matches {
		msg, err := newOutboundMessage(seed, topics.MatchesCreated, m.UserID, m.Reason, m)
		if err != nil {
			return nil, err
		}
		res = append(res, Outbound{Topic: topics.MatchesCreated, Message: msg})
	}
	for _, n := range out.Notifications {
		msg, err := newOutboundMessage(seed, topics.NotifyLike, n.UserID, n.Reason, n)
		if err != nil {
			return nil, err
		}
		res = append(res, Outbound{Topic: topics.NotifyLike, Message: msg})
	}
	return res, nil
}

func newOutboundMessage(seed, topic, recipient string, reason event.Reason, v any) (*message.Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", topic, err)
	}

	id := uuid.NewSHA1(outboundNamespace, []byte(seed+"\x00"+topic+"\x00"+recipient)).String()
	msg := message.NewMessage(id, payload)
	msg.Metadata.Set(MetaPartitionKey, recipient)
	msg.Metadata.Set(MetaReason, string(reason))
	msg.Metadata.Set(natsgo.MsgIdHdr, id)
	if seed != "" {
		msg.Metadata.Set(MetaCausationID, seed)
	}
	return msg, nil
}

// causationSeed prefers the inbound UUID, then the JetStream stream position.
// The payload hash is the last resort: identical events published twice share it.
func causationSeed(msg *message.Message) string {
	if msg == nil {
		return ""
	}
	if msg.UUID != "" {
		return msg.UUID
	}
	if seq := msg.Metadata.Get(MetaStreamSequence); seq != "" {
		return msg.Metadata.Get(MetaStream) + ":" + seq
	}
	sum := sha256.Sum256(msg.Payload)
	return hex.EncodeToString(sum[:])
}
