package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Handler receives events read back from the stream. It has the same shape
// as a store commit hook so the same fan-out serves both.
type Handler func(ctx context.Context, envs []events.Envelope)

type ConsumerConfig struct {
	// ConsumerName must be unique per replica: every replica needs its own
	// copy of the stream to reach its own websocket clients.
	ConsumerName      string        `yaml:"consumer_name"`
	MaxDeliver        int           `yaml:"max_deliver"`
	AckWait           time.Duration `yaml:"ack_wait"`
	MaxAckPending     int           `yaml:"max_ack_pending"`
	InactiveThreshold time.Duration `yaml:"inactive_threshold"`
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		ConsumerName:      "draft-room",
		MaxDeliver:        5,
		AckWait:           30 * time.Second,
		MaxAckPending:     100,
		InactiveThreshold: time.Hour,
	}
}

// Consumer reads the event stream and hands each event to its handlers.
type Consumer struct {
	stream   StreamConfig
	cfg      ConsumerConfig
	js       jetstream.JetStream
	consumer jetstream.Consumer
	handlers []Handler
	seen     *recentIDs
}

func NewConsumer(ctx context.Context, nc *nats.Conn, stream StreamConfig, cfg ConsumerConfig, handlers ...Handler) (*Consumer, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	c := newConsumer(stream, cfg, handlers...)
	c.js = js
	if err := c.ensureConsumer(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer: %w", err)
	}
	return c, nil
}

func newConsumer(stream StreamConfig, cfg ConsumerConfig, handlers ...Handler) *Consumer {
	return &Consumer{
		stream:   stream,
		cfg:      cfg,
		handlers: handlers,
		seen:     newRecentIDs(4096),
	}
}

func (c *Consumer) ensureConsumer(ctx context.Context) error {
	stream, err := c.js.Stream(ctx, c.stream.StreamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:              c.cfg.ConsumerName,
		Durable:           c.cfg.ConsumerName,
		Description:       "Draft room fan-out",
		FilterSubject:     c.stream.SubjectPrefix + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		AckPolicy:         jetstream.AckExplicitPolicy,
		MaxDeliver:        c.cfg.MaxDeliver,
		AckWait:           c.cfg.AckWait,
		MaxAckPending:     c.cfg.MaxAckPending,
		ReplayPolicy:      jetstream.ReplayInstantPolicy,
		InactiveThreshold: c.cfg.InactiveThreshold,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	log.Info().
		Str("consumer", c.cfg.ConsumerName).
		Str("stream", c.stream.StreamName).
		Msg("using JetStream consumer")

	c.consumer = consumer
	return nil
}

// Start consumes until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	log.Info().
		Str("consumer", c.cfg.ConsumerName).
		Str("stream", c.stream.StreamName).
		Msg("starting JetStream event consumer")

	messageCh := make(chan jetstream.Msg, 100)
	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := c.process(ctx, msg.Data()); err != nil {
				// malformed events never get better on redelivery
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("dropping undecodable event")
				if termErr := msg.Term(); termErr != nil {
					log.Error().Err(termErr).Msg("failed to TERM message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (c *Consumer) process(ctx context.Context, data []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if err := env.Validate(); err != nil {
		return err
	}
	if !c.seen.add(env.ID) {
		log.Debug().Str("event_id", env.ID.String()).Msg("skipping redelivered event")
		return nil
	}

	batch := []events.Envelope{env}
	for _, h := range c.handlers {
		h(ctx, batch)
	}

	log.Debug().
		Str("event_id", env.ID.String()).
		Str("draft_id", env.DraftID.String()).
		Str("event_type", string(env.Type)).
		Msg("event dispatched")
	return nil
}

// recentIDs remembers the last n event ids.
type recentIDs struct {
	mu    sync.Mutex
	ids   map[uuid.UUID]struct{}
	order []uuid.UUID
	next  int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{
		ids:   make(map[uuid.UUID]struct{}, n),
		order: make([]uuid.UUID, n),
	}
}

// add records id and reports whether it was new.
func (r *recentIDs) add(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ids[id]; ok {
		return false
	}
	if old := r.order[r.next]; old != uuid.Nil {
		delete(r.ids, old)
	}
	r.order[r.next] = id
	r.next = (r.next + 1) % len(r.order)
	r.ids[id] = struct{}{}
	return true
}
