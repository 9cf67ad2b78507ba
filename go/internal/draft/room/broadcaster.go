package room

//go:generate mockgen -package=mocks -destination=mocks/mock_broadcaster.go github.com/mcdev12/bbdraft/go/internal/draft/room Broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// SubjectPrefix is the NATS subject root for room fan-out. Each draft
// publishes on SubjectPrefix + "." + draftID.
const SubjectPrefix = "draft.room"

// Broadcaster delivers an event to every member of the event's draft room.
type Broadcaster interface {
	Broadcast(ctx context.Context, env events.Envelope) error
}

// LocalBroadcaster hands events straight to a hub in this process.
type LocalBroadcaster struct {
	hub *Hub
}

func NewLocalBroadcaster(hub *Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, env events.Envelope) error {
	b.hub.Deliver(env)
	return nil
}

// NATSBroadcaster publishes events on core NATS so every replica's hub sees
// them. Pair it with Subscribe on each replica.
type NATSBroadcaster struct {
	nc *nats.Conn
}

func NewNATSBroadcaster(nc *nats.Conn) *NATSBroadcaster {
	return &NATSBroadcaster{nc: nc}
}

// Subject returns the room subject for a draft.
func Subject(draftID uuid.UUID) string {
	return SubjectPrefix + "." + draftID.String()
}

func (b *NATSBroadcaster) Broadcast(_ context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", env.Type, err)
	}
	if err := b.nc.Publish(Subject(env.DraftID), data); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", env.Type, err)
	}
	return nil
}

// Subscribe feeds every room subject into the hub. The caller owns the
// returned subscription.
func Subscribe(nc *nats.Conn, hub *Hub) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(SubjectPrefix+".*", func(msg *nats.Msg) {
		var env events.Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to decode room event")
			return
		}
		if want := strings.TrimPrefix(msg.Subject, SubjectPrefix+"."); want != env.DraftID.String() {
			log.Warn().Str("subject", msg.Subject).Str("draft_id", env.DraftID.String()).Msg("room event on mismatched subject")
			return
		}
		hub.Deliver(env)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to room events: %w", err)
	}
	log.Info().Str("subject", SubjectPrefix+".*").Msg("subscribed to room events")
	return sub, nil
}

// Fanout adapts a Broadcaster into a store commit hook: every committed event
// is forwarded to the room.
func Fanout(b Broadcaster) func(context.Context, []events.Envelope) {
	return func(ctx context.Context, envs []events.Envelope) {
		for _, env := range envs {
			if err := b.Broadcast(ctx, env); err != nil {
				log.Error().Err(err).
					Str("draft_id", env.DraftID.String()).
					Str("event_type", string(env.Type)).
					Msg("failed to broadcast event")
			}
		}
	}
}
