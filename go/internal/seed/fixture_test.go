package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/memory"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundledFixtureLoads(t *testing.T) {
	f, err := Load(filepath.Join("..", "assets", "draft_fixture.json"))
	require.NoError(t, err)
	require.Len(t, f.Leagues, 1)

	league := f.Leagues[0]
	// the pool must cover every slot in the draft
	assert.GreaterOrEqual(t, len(f.Players), league.Settings.Rounds*len(f.Teams))

	s := memory.New()
	f.Into(s)

	teams, err := s.ListTeamsByLeague(context.Background(), league.ID)
	require.NoError(t, err)
	assert.Len(t, teams, len(f.Teams))

	pitchers, err := s.ListPlayers(context.Background(), store.PlayerFilter{Position: "SP"})
	require.NoError(t, err)
	require.NotEmpty(t, pitchers)
	assert.Equal(t, models.StatsKindPitching, pitchers[0].Stats.Kind)
}

func TestValidate(t *testing.T) {
	leagueID := uuid.New()
	valid := func() *Fixture {
		return &Fixture{
			Leagues: []models.League{{ID: leagueID, Settings: models.LeagueSettings{DraftFormat: models.DraftFormatSerpentine}}},
			Teams:   []models.FantasyTeam{{ID: uuid.New(), LeagueID: leagueID}},
			Players: []models.Player{{ID: uuid.New(), ExternalID: "mlb-1"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(f *Fixture)
		ok     bool
	}{
		{"valid", func(*Fixture) {}, true},
		{"unknown draft format", func(f *Fixture) { f.Leagues[0].Settings.DraftFormat = "snake" }, false},
		{"orphan team", func(f *Fixture) { f.Teams[0].LeagueID = uuid.New() }, false},
		{"duplicate team", func(f *Fixture) { f.Teams = append(f.Teams, f.Teams[0]) }, false},
		{"duplicate external id", func(f *Fixture) {
			f.Players = append(f.Players, models.Player{ID: uuid.New(), ExternalID: "mlb-1"})
		}, false},
		{"missing player id", func(f *Fixture) { f.Players[0].ID = uuid.Nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(f)
			err := f.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadRejectsMismatchedStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players":[{"id":"`+uuid.NewString()+`","stats":{"kind":"batting"}}]}`), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
