package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
)

type Config struct {
	NotifyChannel    string        `yaml:"notify_channel"`
	FallbackInterval time.Duration `yaml:"fallback_interval"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryDelay       time.Duration `yaml:"retry_delay"`
	BatchSize        int32         `yaml:"batch_size"`
}

func DefaultConfig() Config {
	return Config{
		NotifyChannel:    "draft_outbox_events",
		FallbackInterval: 30 * time.Second,
		PingInterval:     90 * time.Second,
		MaxRetries:       5,
		RetryDelay:       200 * time.Millisecond,
		BatchSize:        100,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.NotifyChannel == "" {
		c.NotifyChannel = def.NotifyChannel
	}
	if c.FallbackInterval <= 0 {
		c.FallbackInterval = def.FallbackInterval
	}
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	return c
}

// Relayer moves outbox rows to the publisher and marks them sent. Rows are
// published at least once; consumers dedupe on the event id.
type Relayer struct {
	repo      Repository
	publisher Publisher
	clock     clockwork.Clock
	cfg       Config

	// one relay at a time so the notify path and the sweep do not race on
	// the same row
	mu sync.Mutex

	statsMu sync.Mutex
	stats   Stats
}

// Stats summarizes relay activity since start.
type Stats struct {
	Published     uint64
	Failed        uint64
	LastPublished time.Time
	LastError     string
}

func NewRelayer(repo Repository, publisher Publisher, clock clockwork.Clock, cfg Config) *Relayer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Relayer{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg.withDefaults(),
	}
}

// RelayOne publishes a single row announced by NOTIFY. Rows already sent are
// skipped.
func (r *Relayer) RelayOne(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	env, pending, err := r.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("event_id", id.String()).Msg("notified outbox event does not exist")
			return nil
		}
		return err
	}
	if !pending {
		return nil
	}
	return r.relay(ctx, env)
}

// RelayPending publishes up to one batch of unsent rows in commit order. It
// stops at the first row that cannot be published so later events never
// overtake it. It returns how many rows were sent.
func (r *Relayer) RelayPending(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unsent, err := r.repo.FetchUnsent(ctx, r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, env := range unsent {
		if err := r.relay(ctx, env); err != nil {
			return sent, err
		}
		sent++
	}
	if sent > 0 {
		log.Debug().Int("count", sent).Msg("relayed pending outbox events")
	}
	return sent, nil
}

func (r *Relayer) relay(ctx context.Context, env events.Envelope) error {
	if err := r.publishWithRetry(ctx, env); err != nil {
		r.record(err)
		return err
	}
	if err := r.repo.MarkSent(ctx, env.ID); err != nil {
		log.Error().Err(err).Str("event_id", env.ID.String()).Msg("failed to mark outbox event as sent")
		r.record(err)
		return err
	}
	r.record(nil)

	log.Info().
		Str("event_id", env.ID.String()).
		Str("draft_id", env.DraftID.String()).
		Str("event_type", string(env.Type)).
		Msg("published and marked event as sent")
	return nil
}

// publishWithRetry backs off linearly between attempts.
func (r *Relayer) publishWithRetry(ctx context.Context, env events.Envelope) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.RetryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-r.clock.After(delay):
			}
		}

		if err := r.publisher.Publish(ctx, env); err != nil {
			lastErr = err
			log.Error().
				Err(err).
				Int("attempt", attempt+1).
				Str("event_id", env.ID.String()).
				Msg("failed to publish, retrying")
			continue
		}

		if attempt > 0 {
			log.Info().
				Int("attempt", attempt+1).
				Str("event_id", env.ID.String()).
				Msg("publish succeeded after retry")
		}
		return nil
	}

	return fmt.Errorf("publish failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

func (r *Relayer) record(err error) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	if err != nil {
		r.stats.Failed++
		r.stats.LastError = err.Error()
		return
	}
	r.stats.Published++
	r.stats.LastPublished = r.clock.Now()
}

func (r *Relayer) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}
