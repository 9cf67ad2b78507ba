// Package memory is an in-process implementation of every store
// collaborator. It backs STORE_DRIVER=memory and the package tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// CommitHook receives the events of every successful mutation, after the
// store lock is released.
type CommitHook func(ctx context.Context, evts []events.Envelope)

type Option func(*Store)

// WithClock overrides the clock used for timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithCommitHook registers fn to run after each successful Apply.
func WithCommitHook(fn CommitHook) Option {
	return func(s *Store) { s.hooks = append(s.hooks, fn) }
}

// Store keeps all state in maps guarded by one mutex, which makes every
// Apply trivially atomic.
type Store struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	hooks   []CommitHook
	drafts  map[uuid.UUID]*models.Draft
	picks   map[uuid.UUID][]models.DraftPick
	teams   map[uuid.UUID]*models.FantasyTeam
	players map[uuid.UUID]*models.Player
	leagues map[uuid.UUID]*models.League
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:   clockwork.NewRealClock(),
		drafts:  make(map[uuid.UUID]*models.Draft),
		picks:   make(map[uuid.UUID][]models.DraftPick),
		teams:   make(map[uuid.UUID]*models.FantasyTeam),
		players: make(map[uuid.UUID]*models.Player),
		leagues: make(map[uuid.UUID]*models.League),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCommitHook registers fn after construction, for wiring that needs the
// store before its consumers exist.
func (s *Store) AddCommitHook(fn CommitHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// PutLeague seeds or replaces a league.
func (s *Store) PutLeague(l *models.League) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *l
	s.leagues[l.ID] = &c
}

// PutTeam seeds or replaces a team.
func (s *Store) PutTeam(t *models.FantasyTeam) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = cloneTeam(t)
}

// PutPlayer seeds or replaces a player.
func (s *Store) PutPlayer(p *models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *p
	s.players[p.ID] = &c
}

func (s *Store) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *Store) GetDraftByLeague(_ context.Context, leagueID uuid.UUID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.drafts {
		if d.LeagueID == leagueID {
			return d.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListDraftsByStatus(_ context.Context, status models.DraftStatus) ([]*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Draft
	for _, d := range s.drafts {
		if d.Status == status {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Apply(ctx context.Context, m store.Mutation) error {
	if err := s.apply(m); err != nil {
		return err
	}
	if len(m.Events) == 0 {
		return nil
	}
	s.mu.RLock()
	hooks := append([]CommitHook(nil), s.hooks...)
	s.mu.RUnlock()
	for _, h := range hooks {
		h(ctx, m.Events)
	}
	return nil
}

func (s *Store) apply(m store.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	d := m.Draft

	if m.Create {
		for _, existing := range s.drafts {
			if existing.LeagueID == d.LeagueID {
				return store.ErrDraftExists
			}
		}
		d.Version = 0
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
	} else {
		existing, ok := s.drafts[d.ID]
		if !ok {
			return store.ErrNotFound
		}
		if existing.Version != d.Version {
			return store.ErrVersionConflict
		}
	}

	if m.Pick != nil {
		for _, p := range s.picks[d.ID] {
			if p.OverallPick == m.Pick.OverallPick {
				return store.ErrSlotFilled
			}
			if p.PlayerID == m.Pick.PlayerID {
				return store.ErrPlayerDrafted
			}
		}
	}
	if m.Roster != nil {
		if _, ok := s.teams[m.Roster.FantasyTeamID]; !ok {
			return store.ErrNotFound
		}
	}

	// every check passed; nothing below can fail
	d.Version++
	d.UpdatedAt = now
	s.drafts[d.ID] = d.Clone()

	if m.Pick != nil {
		s.picks[d.ID] = append(s.picks[d.ID], *m.Pick)
	}
	if m.Roster != nil {
		t := s.teams[m.Roster.FantasyTeamID]
		t.Roster = append(t.Roster, *m.Roster)
	}
	for teamID, pos := range m.TeamPositions {
		if t, ok := s.teams[teamID]; ok {
			p := pos
			t.DraftPosition = &p
		}
	}
	if m.LeagueStatus != "" {
		if l, ok := s.leagues[d.LeagueID]; ok {
			l.Status = m.LeagueStatus
			l.UpdatedAt = now
		}
	}
	return nil
}

func (s *Store) GetPick(_ context.Context, draftID uuid.UUID, overallPick int) (*models.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.picks[draftID] {
		if p.OverallPick == overallPick {
			c := p
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListPicks(_ context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]models.DraftPick(nil), s.picks[draftID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].OverallPick < out[j].OverallPick })
	return out, nil
}

func (s *Store) IsPlayerDrafted(_ context.Context, draftID, playerID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.picks[draftID] {
		if p.PlayerID == playerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetTeam(_ context.Context, id uuid.UUID) (*models.FantasyTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTeam(t), nil
}

func (s *Store) ListTeamsByLeague(_ context.Context, leagueID uuid.UUID) ([]*models.FantasyTeam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FantasyTeam
	for _, t := range s.teams {
		if t.LeagueID == leagueID {
			out = append(out, cloneTeam(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) UpdateDraftQueue(_ context.Context, teamID uuid.UUID, queue []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[teamID]
	if !ok {
		return store.ErrNotFound
	}
	t.DraftQueue = append([]uuid.UUID(nil), queue...)
	return nil
}

func (s *Store) GetPlayer(_ context.Context, id uuid.UUID) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *p
	return &c, nil
}

func (s *Store) ListPlayers(_ context.Context, filter store.PlayerFilter) ([]*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exclude := make(map[uuid.UUID]bool, len(filter.Exclude))
	for _, id := range filter.Exclude {
		exclude[id] = true
	}

	var out []*models.Player
	for _, p := range s.players {
		if exclude[p.ID] {
			continue
		}
		if filter.Position != "" && !strings.EqualFold(p.PrimaryPosition, filter.Position) {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) GetLeague(_ context.Context, id uuid.UUID) (*models.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leagues[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *l
	return &c, nil
}

func cloneTeam(t *models.FantasyTeam) *models.FantasyTeam {
	c := *t
	c.DraftQueue = append([]uuid.UUID(nil), t.DraftQueue...)
	c.Roster = append([]models.Roster(nil), t.Roster...)
	if t.DraftPosition != nil {
		p := *t.DraftPosition
		c.DraftPosition = &p
	}
	return &c
}
