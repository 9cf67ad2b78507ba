package player

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/sqlc-dev/pqtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=draft dbname=draft sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestListQuery(t *testing.T) {
	db := dryRunDB(t)
	excluded := []uuid.UUID{uuid.New(), uuid.New()}

	var rows []playerRow
	stmt := listQuery(db, store.PlayerFilter{
		Position: "sp",
		Exclude:  excluded,
		Limit:    10,
		Offset:   20,
	}).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, `FROM "players"`)
	assert.Contains(t, sql, "UPPER(primary_position) = UPPER($1)")
	assert.Contains(t, sql, "id NOT IN ($2,$3)")
	assert.Contains(t, sql, "ORDER BY full_name, id")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET")
	assert.Equal(t, "sp", stmt.Vars[0])
}

func TestListQueryWithoutFilter(t *testing.T) {
	db := dryRunDB(t)

	var rows []playerRow
	sql := listQuery(db, store.PlayerFilter{}).Find(&rows).Statement.SQL.String()
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "ORDER BY full_name, id")
}

func TestToModelDecodesStats(t *testing.T) {
	row := playerRow{
		ID:              uuid.New(),
		FullName:        "Gerrit Cole",
		PrimaryPosition: "SP",
		Stats: pqtype.NullRawMessage{
			RawMessage: []byte(`{"kind":"pitching","pitching":{"wins":15,"era":2.63}}`),
			Valid:      true,
		},
	}

	p, err := toModel(row)
	require.NoError(t, err)
	assert.Equal(t, models.StatsKindPitching, p.Stats.Kind)
	require.NotNil(t, p.Stats.Pitching)
	assert.Equal(t, 15, p.Stats.Pitching.Wins)
	assert.Nil(t, p.Stats.Batting)
}

func TestToModelRejectsMismatchedStats(t *testing.T) {
	row := playerRow{
		ID: uuid.New(),
		Stats: pqtype.NullRawMessage{
			RawMessage: []byte(`{"kind":"batting","pitching":{"wins":3}}`),
			Valid:      true,
		},
	}

	_, err := toModel(row)
	assert.Error(t, err)
}

func TestToModelWithoutStats(t *testing.T) {
	p, err := toModel(playerRow{ID: uuid.New(), FullName: "Free Agent"})
	require.NoError(t, err)
	assert.Empty(t, p.Stats.Kind)
}
