package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraft(leagueID uuid.UUID) *models.Draft {
	return &models.Draft{
		ID:                 uuid.New(),
		LeagueID:           leagueID,
		Status:             models.DraftStatusInProgress,
		Format:             models.DraftFormatSerpentine,
		CurrentOverallPick: 1,
		TotalRounds:        2,
		TeamCount:          2,
		DraftOrder:         []uuid.UUID{uuid.New(), uuid.New()},
	}
}

func TestApplyVersioning(t *testing.T) {
	ctx := context.Background()
	s := New(WithClock(clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))

	d := newDraft(uuid.New())
	require.NoError(t, s.Apply(ctx, store.Mutation{Draft: d, Create: true}))
	assert.Equal(t, int64(1), d.Version)

	err := s.Apply(ctx, store.Mutation{Draft: newDraft(d.LeagueID), Create: true})
	assert.ErrorIs(t, err, store.ErrDraftExists)

	first, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	second, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)

	first.CurrentOverallPick = 2
	require.NoError(t, s.Apply(ctx, store.Mutation{Draft: first}))
	assert.Equal(t, int64(2), first.Version)

	second.Status = models.DraftStatusPaused
	assert.ErrorIs(t, s.Apply(ctx, store.Mutation{Draft: second}), store.ErrVersionConflict)

	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentOverallPick)
	assert.Equal(t, models.DraftStatusInProgress, got.Status)

	_, err = s.GetDraft(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyPickUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	team := &models.FantasyTeam{ID: uuid.New()}
	s.PutTeam(team)

	d := newDraft(uuid.New())
	require.NoError(t, s.Apply(ctx, store.Mutation{Draft: d, Create: true}))

	playerID := uuid.New()
	require.NoError(t, s.Apply(ctx, store.Mutation{
		Draft:  d,
		Pick:   &models.DraftPick{DraftID: d.ID, OverallPick: 1, TeamID: team.ID, PlayerID: playerID},
		Roster: &models.Roster{ID: uuid.New(), FantasyTeamID: team.ID, PlayerID: playerID},
	}))

	err := s.Apply(ctx, store.Mutation{
		Draft: d,
		Pick:  &models.DraftPick{DraftID: d.ID, OverallPick: 2, PlayerID: playerID},
	})
	assert.ErrorIs(t, err, store.ErrPlayerDrafted)

	err = s.Apply(ctx, store.Mutation{
		Draft: d,
		Pick:  &models.DraftPick{DraftID: d.ID, OverallPick: 1, PlayerID: uuid.New()},
	})
	assert.ErrorIs(t, err, store.ErrSlotFilled)

	// failed mutations leave nothing behind
	got, err := s.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Version, got.Version)

	drafted, err := s.IsPlayerDrafted(ctx, d.ID, playerID)
	require.NoError(t, err)
	assert.True(t, drafted)

	stored, err := s.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPlayer(playerID))
}

func TestCommitHooksSeeEvents(t *testing.T) {
	ctx := context.Background()
	var seen []events.Type
	s := New(WithCommitHook(func(_ context.Context, evts []events.Envelope) {
		for _, e := range evts {
			seen = append(seen, e.Type)
		}
	}))

	d := newDraft(uuid.New())
	now := time.Now()
	require.NoError(t, s.Apply(ctx, store.Mutation{
		Draft:  d,
		Create: true,
		Events: []events.Envelope{events.MustNew(d.ID, events.TypeDraftStarted, events.DraftStartedPayload{StartedAt: now}, now)},
	}))

	stale := newDraft(d.LeagueID)
	_ = s.Apply(ctx, store.Mutation{
		Draft:  stale,
		Create: true,
		Events: []events.Envelope{events.MustNew(d.ID, events.TypeDraftStarted, events.DraftStartedPayload{StartedAt: now}, now)},
	})

	assert.Equal(t, []events.Type{events.TypeDraftStarted}, seen)
}

func TestListPlayersOrderingAndFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	names := []struct {
		name string
		pos  string
	}{
		{"Carl Crawford", "OF"},
		{"Aaron Judge", "OF"},
		{"Bryce Harper", "1B"},
		{"Aaron Nola", "SP"},
	}
	ids := map[string]uuid.UUID{}
	for _, n := range names {
		p := &models.Player{ID: uuid.New(), FullName: n.name, PrimaryPosition: n.pos}
		ids[n.name] = p.ID
		s.PutPlayer(p)
	}

	fullNames := func(ps []*models.Player) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.FullName
		}
		return out
	}

	all, err := s.ListPlayers(ctx, store.PlayerFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aaron Judge", "Aaron Nola", "Bryce Harper", "Carl Crawford"}, fullNames(all))

	of, err := s.ListPlayers(ctx, store.PlayerFilter{Position: "of"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Aaron Judge", "Carl Crawford"}, fullNames(of))

	page, err := s.ListPlayers(ctx, store.PlayerFilter{Exclude: []uuid.UUID{ids["Aaron Judge"]}, Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bryce Harper"}, fullNames(page))

	empty, err := s.ListPlayers(ctx, store.PlayerFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
