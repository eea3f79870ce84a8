package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/hashicorp/go-hclog"

	"helix.run/core/pkg/helixerr"
	"helix.run/core/pkg/model"
)

// StreamConfig carries the options named in spec §6 as "recognized by the
// runtime" for the durable publisher: stream_name, stream_max_messages,
// stream_max_age.
type StreamConfig struct {
	StreamName    string
	MaxMessages   int64
	MaxAge        time.Duration
	ConsumerGroup string
}

// DefaultStreamConfig provides a usable zero-config default so callers
// can open a StreamPublisher without assembling a StreamConfig by hand.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		StreamName:    "helix.events",
		MaxMessages:   100_000,
		MaxAge:        7 * 24 * time.Hour,
		ConsumerGroup: "helix-default",
	}
}

// StreamPublisher is the durable realization of Publisher (§4.C.2), backed
// by a Redis stream. Each event is serialized to CloudEvents JSON and
// published on a subject derived from event.subject if present, else
// event.type; publication to a stream per-subject is realized as a
// "<stream_name>.<subject>" Redis key, ensured idempotently on first use.
type StreamPublisher struct {
	client  *redis.Client
	cfg     StreamConfig
	log     hclog.Logger
	ensured map[string]bool
}

// NewStreamPublisher constructs a publisher against an already-connected
// Redis client. Ensuring streams is lazy and idempotent per subject.
func NewStreamPublisher(client *redis.Client, cfg StreamConfig, log hclog.Logger) *StreamPublisher {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &StreamPublisher{
		client:  client,
		cfg:     cfg,
		log:     log.Named("eventbus.stream"),
		ensured: make(map[string]bool),
	}
}

func (p *StreamPublisher) streamKey(subject string) string {
	return fmt.Sprintf("%s.%s", p.cfg.StreamName, subject)
}

// ensureStream creates the consumer group for a subject's stream if it
// doesn't already exist. XGROUP CREATE with MKSTREAM is idempotent aside
// from the BUSYGROUP error, which is expected and swallowed.
func (p *StreamPublisher) ensureStream(ctx context.Context, key string) error {
	if p.ensured[key] {
		return nil
	}
	err := p.client.XGroupCreateMkStream(ctx, key, p.cfg.ConsumerGroup, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return err
	}
	p.ensured[key] = true
	return nil
}

// PublishEvent implements Publisher. Empty subject and type is a
// ValidationError per §4.C.2.
func (p *StreamPublisher) PublishEvent(ctx context.Context, agentID model.AgentID, payload json.RawMessage, typeOverride string) error {
	ev := model.NewEvent(agentID, eventType(typeOverride), payload)
	subject, ok := ev.PublicationSubject()
	if !ok {
		return helixerr.NewValidationError("StreamPublisher.PublishEvent: empty subject and type", nil)
	}

	key := p.streamKey(subject)
	if err := p.ensureStream(ctx, key); err != nil {
		return helixerr.NewDatabaseError("StreamPublisher.ensureStream", err)
	}

	encoded, err := json.Marshal(ev)
	if err != nil {
		return helixerr.NewSerializationError("StreamPublisher.PublishEvent", err)
	}

	args := &redis.XAddArgs{
		Stream: key,
		MaxLen: p.cfg.MaxMessages,
		Approx: true,
		Values: map[string]interface{}{"event": string(encoded)},
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return helixerr.NewDatabaseError("StreamPublisher.PublishEvent", err)
	}
	return nil
}

// Handler is invoked for every message delivered by Subscribe. Returning a
// non-nil error or a JSON decode failure still results in the message being
// acked, to avoid redelivery storms (§4.C.2).
type Handler func(ctx context.Context, ev *model.Event) error

// Subscribe implements push delivery: messages are read via the consumer
// group and delivered to handler, acked on successful (or decode-failed)
// handling.
func (p *StreamPublisher) Subscribe(ctx context.Context, subject, consumerName string, handler Handler) error {
	key := p.streamKey(subject)
	if err := p.ensureStream(ctx, key); err != nil {
		return helixerr.NewDatabaseError("StreamPublisher.Subscribe", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.cfg.ConsumerGroup,
			Consumer: consumerName,
			Streams:  []string{key, ">"},
			Count:    10,
			Block:    2 * time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return helixerr.NewDatabaseError("StreamPublisher.Subscribe.XReadGroup", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				p.deliverOne(ctx, key, msg, handler)
			}
		}
	}
}

func (p *StreamPublisher) deliverOne(ctx context.Context, key string, msg redis.XMessage, handler Handler) {
	raw, _ := msg.Values["event"].(string)
	var ev model.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		p.log.Warn("dropping undecodable message, acking to avoid redelivery storm", "stream", key, "id", msg.ID, "error", err)
		p.client.XAck(ctx, key, p.cfg.ConsumerGroup, msg.ID)
		return
	}
	if err := handler(ctx, &ev); err != nil {
		p.log.Warn("handler failed, acking anyway", "stream", key, "id", msg.ID, "error", err)
	}
	p.client.XAck(ctx, key, p.cfg.ConsumerGroup, msg.ID)
}

// Fetch implements pull delivery: an explicit batch read with a timeout,
// returning whatever arrived (possibly nothing) without blocking further.
func (p *StreamPublisher) Fetch(ctx context.Context, subject, consumerName string, batchSize int64, timeout time.Duration) ([]*model.Event, error) {
	key := p.streamKey(subject)
	if err := p.ensureStream(ctx, key); err != nil {
		return nil, helixerr.NewDatabaseError("StreamPublisher.Fetch", err)
	}

	streams, err := p.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    p.cfg.ConsumerGroup,
		Consumer: consumerName,
		Streams:  []string{key, ">"},
		Count:    batchSize,
		Block:    timeout,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, helixerr.NewDatabaseError("StreamPublisher.Fetch", err)
	}

	var out []*model.Event
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			raw, _ := msg.Values["event"].(string)
			var ev model.Event
			if err := json.Unmarshal([]byte(raw), &ev); err != nil {
				p.log.Warn("dropping undecodable message on fetch", "stream", key, "id", msg.ID, "error", err)
				p.client.XAck(ctx, key, p.cfg.ConsumerGroup, msg.ID)
				continue
			}
			out = append(out, &ev)
			p.client.XAck(ctx, key, p.cfg.ConsumerGroup, msg.ID)
		}
	}
	return out, nil
}

var _ Publisher = (*StreamPublisher)(nil)
