package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// Listener drives a Relayer from Postgres LISTEN/NOTIFY, with a periodic
// sweep for notifications lost while disconnected.
type Listener struct {
	listener *pq.Listener
	relayer  *Relayer
	cfg      Config

	stopOnce sync.Once
	stopErr  error
}

func NewListener(databaseURL string, relayer *Relayer, cfg Config) (*Listener, error) {
	cfg = cfg.withDefaults()
	l := pq.NewListener(
		databaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for notifications")

	return &Listener{
		listener: l,
		relayer:  relayer,
		cfg:      cfg,
	}, nil
}

// Start relays until ctx is done. Rows left over from a previous run are
// swept first.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.NotifyChannel).
		Dur("ping_interval", l.cfg.PingInterval).
		Dur("fallback_interval", l.cfg.FallbackInterval).
		Msg("listener started")

	l.sweep(ctx)

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; anything sent meanwhile is
				// only reachable by sweeping
				l.sweep(ctx)
				continue
			}
			id, err := uuid.Parse(note.Extra)
			if err != nil {
				log.Error().Err(err).Str("payload", note.Extra).Msg("invalid event id in notification")
				continue
			}
			if err := l.relayer.RelayOne(ctx, id); err != nil {
				log.Error().Err(err).Str("event_id", id.String()).Msg("failed to handle notification")
			}
		case <-fallbackTicker.C:
			l.sweep(ctx)
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) sweep(ctx context.Context) {
	if _, err := l.relayer.RelayPending(ctx); err != nil {
		log.Error().Err(err).Msg("failed to process unsent events")
	}
}

// Stop closes the LISTEN connection. It is safe to call more than once.
func (l *Listener) Stop() error {
	l.stopOnce.Do(func() {
		l.stopErr = l.listener.Close()
	})
	return l.stopErr
}
