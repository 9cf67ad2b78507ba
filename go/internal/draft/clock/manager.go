// Package clock runs the per-draft pick clock. Each in-progress draft gets
// one task per process that ticks against the persisted deadline, so timers
// survive restarts and keep running with nobody connected.
package clock

//go:generate mockgen -package=mocks -destination=mocks/mock_timeout_handler.go github.com/mcdev12/bbdraft/go/internal/draft/clock TimeoutHandler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/room"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TimeoutHandler acts on a slot whose clock ran out. It must tolerate stale
// calls for slots that have already moved on.
type TimeoutHandler interface {
	HandleTimeout(ctx context.Context, draftID uuid.UUID, overallPick int) error
}

// SkipForfeiter closes catch-up windows whose deadline passed.
type SkipForfeiter interface {
	ForfeitExpiredSkips(ctx context.Context, draftID uuid.UUID) (int, error)
}

// Resumer restarts drafts paused past their limit.
type Resumer interface {
	AutoResume(ctx context.Context) ([]uuid.UUID, error)
}

type Config struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	LeaseTTL      time.Duration `yaml:"lease_ttl"`
}

func DefaultConfig() Config {
	return Config{
		TickInterval:  time.Second,
		SweepInterval: 15 * time.Second,
		LeaseTTL:      5 * time.Second,
	}
}

type Deps struct {
	Drafts      store.DraftStore
	Handler     TimeoutHandler
	Broadcaster room.Broadcaster
	// Optional collaborators.
	Forfeiter SkipForfeiter
	Resumer   Resumer
	Lease     Lease
	Clock     clockwork.Clock
	Config    Config
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns the registry of running clock tasks.
type Manager struct {
	drafts      store.DraftStore
	handler     TimeoutHandler
	broadcaster room.Broadcaster
	forfeiter   SkipForfeiter
	resumer     Resumer
	lease       Lease
	clock       clockwork.Clock
	cfg         Config

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	tasks map[uuid.UUID]*task
}

func NewManager(deps Deps) *Manager {
	clk := deps.Clock
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	cfg := deps.Config
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = def.LeaseTTL
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		drafts:      deps.Drafts,
		handler:     deps.Handler,
		broadcaster: deps.Broadcaster,
		forfeiter:   deps.Forfeiter,
		resumer:     deps.Resumer,
		lease:       deps.Lease,
		clock:       clk,
		cfg:         cfg,
		ctx:         ctx,
		cancel:      cancel,
		tasks:       make(map[uuid.UUID]*task),
	}
}

// Ensure starts a clock task for the draft unless one is already running.
// The task exits on its own once the draft leaves in_progress.
func (m *Manager) Ensure(draftID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return
	}
	if _, ok := m.tasks[draftID]; ok {
		return
	}

	ctx, cancel := context.WithCancel(m.ctx)
	t := &task{cancel: cancel, done: make(chan struct{})}
	m.tasks[draftID] = t
	go m.run(ctx, draftID, t)

	log.Debug().Str("draft_id", draftID.String()).Msg("clock task started")
}

// Stop cancels the draft's clock task, if any.
func (m *Manager) Stop(draftID uuid.UUID) {
	m.mu.Lock()
	t, ok := m.tasks[draftID]
	delete(m.tasks, draftID)
	m.mu.Unlock()

	if ok {
		t.cancel()
		log.Debug().Str("draft_id", draftID.String()).Msg("clock task stopped")
	}
}

// Active reports whether a task is running for the draft.
func (m *Manager) Active(draftID uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[draftID]
	return ok
}

// Close stops every task and waits for them to exit. Ensure is a no-op
// afterwards.
func (m *Manager) Close() {
	m.cancel()

	m.mu.Lock()
	running := make([]*task, 0, len(m.tasks))
	for id, t := range m.tasks {
		running = append(running, t)
		delete(m.tasks, id)
	}
	m.mu.Unlock()

	for _, t := range running {
		<-t.done
	}
}

// HandleEvents keeps the registry in step with committed draft events. Its
// signature matches the store commit hook and the outbox relay.
func (m *Manager) HandleEvents(_ context.Context, envs []events.Envelope) {
	for _, env := range envs {
		switch env.Type {
		case events.TypeDraftStarted, events.TypeDraftResumed,
			events.TypePickMade, events.TypeAutoPick, events.TypeSkip:
			m.Ensure(env.DraftID)
		case events.TypeCompleted, events.TypeDraftPaused:
			m.Stop(env.DraftID)
		}
	}
}

// Run sweeps the store until ctx is cancelled: it starts tasks for every
// in-progress draft, forfeits expired catch-up windows and auto-resumes
// drafts paused past their limit. All tasks are stopped on return.
func (m *Manager) Run(ctx context.Context) error {
	defer m.Close()

	log.Info().
		Dur("tick_interval", m.cfg.TickInterval).
		Dur("sweep_interval", m.cfg.SweepInterval).
		Msg("draft clock started")

	ticker := m.clock.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	m.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("draft clock shutting down")
			return nil
		case <-ticker.Chan():
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	if m.resumer != nil {
		resumed, err := m.resumer.AutoResume(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to auto-resume drafts")
		}
		for _, id := range resumed {
			m.Ensure(id)
		}
	}

	drafts, err := m.drafts.ListDraftsByStatus(ctx, models.DraftStatusInProgress)
	if err != nil {
		log.Error().Err(err).Msg("failed to list in-progress drafts")
		return
	}
	for _, d := range drafts {
		m.Ensure(d.ID)
		if m.forfeiter == nil {
			continue
		}
		n, err := m.forfeiter.ForfeitExpiredSkips(ctx, d.ID)
		if err != nil {
			log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to forfeit expired skips")
			continue
		}
		if n > 0 {
			log.Info().Str("draft_id", d.ID.String()).Int("forfeited", n).Msg("expired catch-up windows forfeited")
		}
	}
}

func (m *Manager) run(ctx context.Context, draftID uuid.UUID, t *task) {
	defer func() {
		m.mu.Lock()
		if m.tasks[draftID] == t {
			delete(m.tasks, draftID)
		}
		m.mu.Unlock()
		t.cancel()
		close(t.done)
	}()

	ticker := m.clock.NewTicker(m.cfg.TickInterval)
	defer ticker.Stop()

	if !m.tick(ctx, draftID) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if !m.tick(ctx, draftID) {
				return
			}
		}
	}
}

// tick runs one clock step. It returns false when the task should exit.
func (m *Manager) tick(ctx context.Context, draftID uuid.UUID) bool {
	d, err := m.drafts.GetDraft(ctx, draftID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return false
	case err != nil:
		if ctx.Err() != nil {
			return false
		}
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to load draft for clock tick")
		return true
	}
	if d.Status != models.DraftStatusInProgress || d.OnTheClock == nil {
		log.Debug().Str("draft_id", draftID.String()).Str("status", string(d.Status)).Msg("draft not running, clock task exiting")
		return false
	}

	now := m.clock.Now()
	remaining := d.OnTheClock.TimeRemaining(now)
	tickEvent := events.MustNew(draftID, events.TypeClockTick, events.ClockTickPayload{
		OverallPick:   d.CurrentOverallPick,
		TimeRemaining: remaining,
		OnTheClock:    d.OnTheClock,
	}, now)
	if err := m.broadcaster.Broadcast(ctx, tickEvent); err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to broadcast clock tick")
	}

	if remaining > 0 {
		return true
	}

	if !m.acquire(ctx, draftID, d.CurrentOverallPick) {
		return true
	}
	if err := m.handler.HandleTimeout(ctx, draftID, d.CurrentOverallPick); err != nil {
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Int("overall_pick", d.CurrentOverallPick).
			Msg("failed to handle pick timeout, retrying next tick")
		m.release(ctx, draftID, d.CurrentOverallPick)
	}
	return true
}

func (m *Manager) acquire(ctx context.Context, draftID uuid.UUID, overallPick int) bool {
	if m.lease == nil {
		return true
	}
	ok, err := m.lease.Acquire(ctx, leaseKey(draftID, overallPick), m.cfg.LeaseTTL)
	if err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to acquire clock lease")
		return false
	}
	return ok
}

func (m *Manager) release(ctx context.Context, draftID uuid.UUID, overallPick int) {
	if m.lease == nil {
		return
	}
	if err := m.lease.Release(ctx, leaseKey(draftID, overallPick)); err != nil {
		log.Warn().Err(err).Str("draft_id", draftID.String()).Msg("failed to release clock lease")
	}
}
