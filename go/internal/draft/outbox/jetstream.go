package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Message headers set on every published event.
const (
	HeaderEventType = "Event-Type"
	HeaderDraftID   = "Draft-ID"
	HeaderEventID   = "Event-ID"
)

type StreamConfig struct {
	StreamName      string        `yaml:"stream_name"`
	SubjectPrefix   string        `yaml:"subject_prefix"`
	MaxAge          time.Duration `yaml:"max_age"`
	Replicas        int           `yaml:"replicas"`
	DuplicateWindow time.Duration `yaml:"duplicate_window"`
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		StreamName:      "DRAFT_EVENTS",
		SubjectPrefix:   "draft.events",
		MaxAge:          7 * 24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
	}
}

// Subject is where an event lands: <prefix>.<draft id>.<type>.
func (c StreamConfig) Subject(env events.Envelope) string {
	return fmt.Sprintf("%s.%s.%s", c.SubjectPrefix, env.DraftID, env.Type)
}

// EnsureStream creates the event stream or brings its limits up to date.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg StreamConfig) error {
	sc := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Draft event stream fed by the outbox",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxMsgs:     -1,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}

// JetStreamPublisher publishes outbox events with the event id as the
// JetStream message id, so a row relayed twice is stored once.
type JetStreamPublisher struct {
	js  jetstream.JetStream
	cfg StreamConfig
}

func NewJetStreamPublisher(ctx context.Context, nc *nats.Conn, cfg StreamConfig) (*JetStreamPublisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	if err := EnsureStream(ctx, js, cfg); err != nil {
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return &JetStreamPublisher{js: js, cfg: cfg}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	subject := p.cfg.Subject(env)
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			HeaderEventType: []string{string(env.Type)},
			HeaderDraftID:   []string{env.DraftID.String()},
			HeaderEventID:   []string{env.ID.String()},
		},
	},
		jetstream.WithMsgID(env.ID.String()),
		jetstream.WithExpectStream(p.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_id", env.ID.String()).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("published to JetStream")
	return nil
}
