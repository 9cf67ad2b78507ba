package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/dbconfig"
	"github.com/mcdev12/bbdraft/go/internal/draft/clock"
	"github.com/mcdev12/bbdraft/go/internal/draft/lifecycle"
	"github.com/mcdev12/bbdraft/go/internal/draft/outbox"
	"github.com/mcdev12/bbdraft/go/internal/draft/pick"
	"github.com/mcdev12/bbdraft/go/internal/draft/room"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/memory"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/postgres"
	"github.com/mcdev12/bbdraft/go/internal/fantasyteam"
	"github.com/mcdev12/bbdraft/go/internal/leagues"
	"github.com/mcdev12/bbdraft/go/internal/player"
	"github.com/mcdev12/bbdraft/go/internal/seed"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// stores groups the collaborators the draft core reads and writes through.
type stores struct {
	drafts  store.DraftStore
	ledger  store.PickLedger
	teams   store.TeamStore
	players store.PlayerDirectory
	leagues store.LeagueStore
}

type Services struct {
	Lifecycle *lifecycle.App
	Picks     *pick.App
	Hub       *room.Hub
	Clock     *clock.Manager
	// Set with the postgres store only.
	Relayer  *outbox.Relayer
	Listener *outbox.Listener
	Consumer *outbox.Consumer

	instance string
	closers  []func()
}

// Close releases connections in reverse order of acquisition.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// clockKeeper breaks the construction cycle between the hub, which keeps
// clocks alive on join, and the clock manager, which broadcasts through the
// hub.
type clockKeeper struct {
	manager *clock.Manager
}

func (k *clockKeeper) Ensure(draftID uuid.UUID) {
	if k.manager != nil {
		k.manager.Ensure(draftID)
	}
}

func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "draftd"
	}
	return fmt.Sprintf("%s-%s", host, uuid.NewString()[:8])
}

func setupServices(ctx context.Context, config *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Stores → Apps → Clock and Room → Event delivery
	svc := &Services{instance: instanceID()}
	clk := clockwork.NewRealClock()

	var (
		st      stores
		mem     *memory.Store
		queries *postgres.Queries
	)
	switch config.Store.Driver {
	case storeDriverPostgres:
		dbCfg := dbconfig.NewConfigFromEnv()
		database, err := setupDatabase(ctx, dbCfg, config.Store.AutoMigrate)
		if err != nil {
			return nil, err
		}
		svc.closers = append(svc.closers, func() { database.Close() })

		st, queries, err = postgresStores(database, clk)
		if err != nil {
			svc.Close()
			return nil, err
		}
	default:
		mem = memory.New(memory.WithClock(clk))
		if config.Store.SeedPath != "" {
			fixture, err := seed.Load(config.Store.SeedPath)
			if err != nil {
				return nil, err
			}
			fixture.Into(mem)
			log.Info().
				Str("path", config.Store.SeedPath).
				Int("leagues", len(fixture.Leagues)).
				Int("teams", len(fixture.Teams)).
				Int("players", len(fixture.Players)).
				Msg("memory store seeded")
		}
		st = stores{drafts: mem, ledger: mem, teams: mem, players: mem, leagues: mem}
	}

	// Apps
	defaults := config.DraftDefaults
	svc.Lifecycle = lifecycle.NewApp(lifecycle.Deps{
		Drafts:   st.drafts,
		Ledger:   st.ledger,
		Teams:    st.teams,
		Players:  st.players,
		Leagues:  st.leagues,
		Clock:    clk,
		Defaults: &defaults,
	})
	svc.Picks = pick.NewApp(pick.Deps{
		Drafts:  st.drafts,
		Ledger:  st.ledger,
		Teams:   st.teams,
		Players: st.players,
		Leagues: st.leagues,
		Clock:   clk,
	})

	// Redis is optional: presence and the clock lease fall back to
	// process-local behavior without it.
	var (
		presence room.Presence
		lease    clock.Lease
	)
	if config.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		svc.closers = append(svc.closers, func() { rdb.Close() })
		presence = room.NewRedisPresence(rdb, config.Redis.PresenceTTL)
		lease = clock.NewRedisLease(rdb, svc.instance)
		log.Info().Str("addr", config.Redis.Addr).Msg("connected to redis")
	}

	var nc *nats.Conn
	if config.NATS.URL != "" {
		var err error
		nc, err = nats.Connect(config.NATS.URL,
			nats.Name("draftd-"+svc.instance),
			nats.MaxReconnects(config.NATS.MaxReconnects),
			nats.ReconnectWait(config.NATS.ReconnectWait),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Warn().Err(err).Msg("nats disconnected")
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
			}),
		)
		if err != nil {
			svc.Close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		svc.closers = append(svc.closers, nc.Close)
		log.Info().Str("url", config.NATS.URL).Msg("connected to nats")
	}

	// Room and clock
	keeper := &clockKeeper{}
	hubDeps := room.Deps{
		Drafts:   st.drafts,
		Ledger:   st.ledger,
		Teams:    st.teams,
		Picks:    svc.Picks,
		Keeper:   keeper,
		Presence: presence,
		Clock:    clk,
		Config:   config.Room,
	}
	// Without a database outbox, state events cross replicas over core NATS.
	if mem != nil && nc != nil {
		hubDeps.Broadcaster = room.NewNATSBroadcaster(nc)
	}
	svc.Hub = room.NewHub(hubDeps)

	svc.Clock = clock.NewManager(clock.Deps{
		Drafts:      st.drafts,
		Handler:     svc.Picks,
		Broadcaster: room.NewLocalBroadcaster(svc.Hub),
		Forfeiter:   svc.Picks,
		Resumer:     svc.Lifecycle,
		Lease:       lease,
		Clock:       clk,
		Config:      config.Clock,
	})
	keeper.manager = svc.Clock

	// Event delivery
	if mem != nil {
		mem.AddCommitHook(room.Fanout(svc.Hub.Broadcaster()))
		mem.AddCommitHook(svc.Clock.HandleEvents)
		if nc != nil {
			sub, err := room.Subscribe(nc, svc.Hub)
			if err != nil {
				svc.Close()
				return nil, err
			}
			svc.closers = append(svc.closers, func() { _ = sub.Unsubscribe() })
		}
		return svc, nil
	}

	if err := svc.setupOutbox(ctx, config, queries, nc, clk); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

func postgresStores(database *sql.DB, clk clockwork.Clock) (stores, *postgres.Queries, error) {
	repo := postgres.NewRepository(database, clk)
	gdb, err := dbconfig.OpenGorm(database)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		drafts:  repo,
		ledger:  repo,
		teams:   fantasyteam.NewRepository(gdb),
		players: player.NewRepository(gdb),
		leagues: leagues.NewRepository(gdb),
	}, repo.Queries(), nil
}

// setupOutbox relays committed outbox rows to JetStream and feeds the
// stream back into this replica's room and clock registry.
func (s *Services) setupOutbox(ctx context.Context, config *Config, queries *postgres.Queries, nc *nats.Conn, clk clockwork.Clock) error {
	publisher, err := outbox.NewJetStreamPublisher(ctx, nc, config.NATS.Stream)
	if err != nil {
		return err
	}
	s.Relayer = outbox.NewRelayer(outbox.NewPostgresRepository(queries), publisher, clk, config.Outbox)

	s.Listener, err = outbox.NewListener(dbconfig.NewConfigFromEnv().DSN(), s.Relayer, config.Outbox)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() {
		if err := s.Listener.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop outbox listener")
		}
	})

	consumerCfg := config.NATS.Consumer
	consumerCfg.ConsumerName = fmt.Sprintf("%s-%s", consumerCfg.ConsumerName, s.instance)
	s.Consumer, err = outbox.NewConsumer(ctx, nc, config.NATS.Stream, consumerCfg,
		room.Fanout(room.NewLocalBroadcaster(s.Hub)),
		s.Clock.HandleEvents,
	)
	return err
}
