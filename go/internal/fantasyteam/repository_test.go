package fantasyteam

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToModel(t *testing.T) {
	queued := []uuid.UUID{uuid.New(), uuid.New()}
	position := 3
	row := teamRow{
		ID:            uuid.New(),
		LeagueID:      uuid.New(),
		OwnerID:       uuid.New(),
		Name:          "Bronx Bombers",
		Abbreviation:  "BRX",
		DraftPosition: &position,
		DraftQueue:    pq.StringArray{queued[0].String(), queued[1].String()},
		CreatedAt:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Roster: []rosterRow{{
			ID:              uuid.New(),
			PlayerID:        uuid.New(),
			Position:        "SS",
			AcquisitionType: "draft",
			AcquiredAt:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}},
	}

	team, err := toModel(row)
	require.NoError(t, err)
	assert.Equal(t, queued, team.DraftQueue)
	require.NotNil(t, team.DraftPosition)
	assert.Equal(t, 3, *team.DraftPosition)
	require.Len(t, team.Roster, 1)
	assert.Equal(t, models.AcquisitionTypeDraft, team.Roster[0].AcquisitionType)
	assert.True(t, team.HasPlayer(row.Roster[0].PlayerID))
}

func TestToModelEmptyQueue(t *testing.T) {
	team, err := toModel(teamRow{ID: uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, team.DraftQueue)
	assert.Empty(t, team.DraftQueue)
	assert.Empty(t, team.Roster)
}

func TestToModelRejectsMalformedQueue(t *testing.T) {
	_, err := toModel(teamRow{ID: uuid.New(), DraftQueue: pq.StringArray{"not-a-uuid"}})
	assert.Error(t, err)
}
