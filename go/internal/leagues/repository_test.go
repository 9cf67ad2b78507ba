package leagues

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestToModelFoldsDraftSettings(t *testing.T) {
	row := leagueRow{
		ID:             uuid.New(),
		Name:           "Hot Stove",
		CommissionerID: uuid.New(),
		Season:         2026,
		Status:         "setup",
		DraftFormat:    "straight",
		Rounds:         23,
		PickTimer:      90,
	}

	league := toModel(row)
	assert.Equal(t, models.LeagueStatusSetup, league.Status)
	assert.Equal(t, models.LeagueSettings{
		DraftFormat: models.DraftFormatStraight,
		Rounds:      23,
		PickTimer:   90,
	}, league.Settings)
	assert.Equal(t, row.CommissionerID, league.CommissionerID)
}
