// Package drafttest seeds an in-memory draft room for tests.
package drafttest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/memory"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/require"
)

// Epoch is the fake clock's starting instant.
var Epoch = time.Date(2025, 3, 20, 19, 0, 0, 0, time.UTC)

var positions = []string{"SS", "SP", "OF", "C", "1B", "RP", "2B", "3B"}

type Options struct {
	Teams     int
	Rounds    int
	Players   int
	PickTimer int
	Format    models.DraftFormat
	Status    models.DraftStatus
	// NoDraft seeds the league, teams and players only.
	NoDraft bool
	// Configure adjusts the default configuration.
	Configure func(*models.DraftConfiguration)
}

type Option func(*Options)

func WithTeams(n int) Option     { return func(o *Options) { o.Teams = n } }
func WithRounds(n int) Option    { return func(o *Options) { o.Rounds = n } }
func WithPlayers(n int) Option   { return func(o *Options) { o.Players = n } }
func WithPickTimer(s int) Option { return func(o *Options) { o.PickTimer = s } }
func WithFormat(f models.DraftFormat) Option {
	return func(o *Options) { o.Format = f }
}
func WithStatus(s models.DraftStatus) Option {
	return func(o *Options) { o.Status = s }
}
func WithoutDraft() Option { return func(o *Options) { o.NoDraft = true } }
func WithConfig(fn func(*models.DraftConfiguration)) Option {
	return func(o *Options) { o.Configure = fn }
}

// Fixture is a seeded store plus handles on everything in it.
type Fixture struct {
	Store        *memory.Store
	Clock        *clockwork.FakeClock
	League       *models.League
	Commissioner uuid.UUID
	// Teams are in draft order.
	Teams []*models.FantasyTeam
	// Players are in listing order.
	Players []*models.Player
	DraftID uuid.UUID
}

// New seeds a league with a running draft on its first pick unless options
// say otherwise.
func New(t testing.TB, opts ...Option) *Fixture {
	t.Helper()
	o := Options{
		Teams:     4,
		Rounds:    2,
		Players:   24,
		PickTimer: 90,
		Format:    models.DraftFormatSerpentine,
		Status:    models.DraftStatusInProgress,
	}
	for _, opt := range opts {
		opt(&o)
	}

	clock := clockwork.NewFakeClockAt(Epoch)
	f := &Fixture{
		Store:        memory.New(memory.WithClock(clock)),
		Clock:        clock,
		Commissioner: uuid.New(),
	}

	f.League = &models.League{
		ID:             uuid.New(),
		Name:           "Test League",
		CommissionerID: f.Commissioner,
		Settings: models.LeagueSettings{
			DraftFormat: o.Format,
			Rounds:      o.Rounds,
			PickTimer:   o.PickTimer,
		},
		Status:    models.LeagueStatusSetup,
		Season:    2025,
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	}
	f.Store.PutLeague(f.League)

	for i := 0; i < o.Teams; i++ {
		team := &models.FantasyTeam{
			ID:           uuid.New(),
			LeagueID:     f.League.ID,
			OwnerID:      uuid.New(),
			Name:         fmt.Sprintf("Team %d", i+1),
			Abbreviation: fmt.Sprintf("T%d", i+1),
			CreatedAt:    Epoch.Add(time.Duration(i) * time.Minute),
		}
		f.Store.PutTeam(team)
		f.Teams = append(f.Teams, team)
	}

	for i := 0; i < o.Players; i++ {
		p := &models.Player{
			ID:              uuid.New(),
			ExternalID:      fmt.Sprintf("mlb-%d", 1000+i),
			FullName:        fmt.Sprintf("Player %02d", i+1),
			PrimaryPosition: positions[i%len(positions)],
			MLBTeam:         "NYY",
			Active:          true,
			CreatedAt:       Epoch,
		}
		f.Store.PutPlayer(p)
		f.Players = append(f.Players, p)
	}

	if o.NoDraft {
		return f
	}

	order := make([]uuid.UUID, len(f.Teams))
	for i, team := range f.Teams {
		order[i] = team.ID
	}
	cfg := models.DefaultDraftConfiguration()
	if o.Configure != nil {
		o.Configure(&cfg)
	}
	d := &models.Draft{
		ID:                 uuid.New(),
		LeagueID:           f.League.ID,
		SeasonYear:         2025,
		Mode:               models.DraftModeLive,
		Status:             o.Status,
		Format:             o.Format,
		CurrentRound:       1,
		CurrentPick:        1,
		CurrentOverallPick: 1,
		TotalRounds:        o.Rounds,
		TeamCount:          o.Teams,
		PickTimer:          o.PickTimer,
		DraftOrder:         order,
		Configuration:      cfg,
		CreatedAt:          Epoch,
	}
	if o.Status == models.DraftStatusInProgress {
		start := clock.Now()
		d.ActualStart = &start
		require.NoError(t, turn.OpenClock(d, start))
	}

	positionsByTeam := make(map[uuid.UUID]int, len(order))
	for i, id := range order {
		positionsByTeam[id] = i + 1
	}
	require.NoError(t, f.Store.Apply(context.Background(), store.Mutation{
		Draft:         d,
		Create:        true,
		TeamPositions: positionsByTeam,
	}))
	f.DraftID = d.ID
	return f
}

// Draft reads the current draft state.
func (f *Fixture) Draft(t testing.TB) *models.Draft {
	t.Helper()
	d, err := f.Store.GetDraft(context.Background(), f.DraftID)
	require.NoError(t, err)
	return d
}

// OnClock returns the team whose turn it is.
func (f *Fixture) OnClock(t testing.TB) *models.FantasyTeam {
	t.Helper()
	d := f.Draft(t)
	require.NotNil(t, d.OnTheClock, "no team on the clock")
	return f.Team(d.OnTheClock.TeamID)
}

// Team returns the seeded team with id, or nil.
func (f *Fixture) Team(id uuid.UUID) *models.FantasyTeam {
	for _, team := range f.Teams {
		if team.ID == id {
			return team
		}
	}
	return nil
}

// ExpireClock moves the fake clock past the current deadline.
func (f *Fixture) ExpireClock(t testing.TB) {
	t.Helper()
	d := f.Draft(t)
	require.NotNil(t, d.OnTheClock)
	f.Clock.Advance(d.OnTheClock.ClockExpires.Sub(f.Clock.Now()) + time.Second)
}
