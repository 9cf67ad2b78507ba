package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execRecorder captures ExecContext calls and reports a fixed row count.
type execRecorder struct {
	DBTX
	query    string
	args     []interface{}
	affected int64
}

func (e *execRecorder) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	e.query = query
	e.args = args
	return driver.RowsAffected(e.affected), nil
}

func TestMapConstraint(t *testing.T) {
	unique := func(constraint string) error {
		return &pq.Error{Code: uniqueViolation, Constraint: constraint}
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"slot taken", unique("draft_picks_pkey"), store.ErrSlotFilled},
		{"player taken", unique("draft_picks_player_unique"), store.ErrPlayerDrafted},
		{"league already has a draft", unique("drafts_league_id_key"), store.ErrDraftExists},
		{"wrapped", fmt.Errorf("exec: %w", unique("draft_picks_pkey")), store.ErrSlotFilled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapConstraint(tt.err, "failed to insert"), tt.want)
		})
	}

	t.Run("other constraints pass through", func(t *testing.T) {
		cause := unique("roster_pkey")
		err := mapConstraint(cause, "failed to insert roster")
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, store.ErrSlotFilled)
		assert.Contains(t, err.Error(), "failed to insert roster")
	})

	t.Run("other codes pass through", func(t *testing.T) {
		cause := &pq.Error{Code: "23503", Constraint: "draft_picks_pkey"}
		assert.NotErrorIs(t, mapConstraint(cause, "failed"), store.ErrSlotFilled)
	})
}

func TestDraftRowConversion(t *testing.T) {
	started := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	teams := []uuid.UUID{uuid.New(), uuid.New()}
	d := &models.Draft{
		ID:                 uuid.New(),
		LeagueID:           uuid.New(),
		SeasonYear:         2026,
		Mode:               models.DraftModeLive,
		Status:             models.DraftStatusInProgress,
		Format:             models.DraftFormatSerpentine,
		ActualStart:        &started,
		CurrentRound:       1,
		CurrentPick:        2,
		CurrentOverallPick: 2,
		TotalRounds:        5,
		TeamCount:          2,
		PickTimer:          90,
		DraftOrder:         teams,
		OnTheClock: &models.OnTheClock{
			TeamID:       teams[1],
			ClockStarted: started,
			ClockExpires: started.Add(90 * time.Second),
		},
		Configuration: models.DefaultDraftConfiguration(),
		TimeBank:      map[uuid.UUID]int{teams[0]: 0, teams[1]: 30},
		Version:       7,
		CreatedAt:     started,
		UpdatedAt:     started,
	}

	row, err := modelToDraftRow(d)
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{teams[0].String(), teams[1].String()}, row.DraftOrder)
	assert.True(t, row.TimeBank.Valid)
	assert.False(t, row.ScheduledStart.Valid)
	assert.Equal(t, teams[1], row.ClockTeamID.UUID)

	skipDeadline := started.Add(30 * time.Minute)
	skip := SkippedPickRow{
		ID:               uuid.New(),
		DraftID:          d.ID,
		TeamID:           teams[0],
		Round:            1,
		PickInRound:      1,
		OverallPick:      1,
		SkippedAt:        started,
		Reason:           string(models.SkipReasonManual),
		OriginalDeadline: started,
		CatchUpEligible:  true,
		CatchUpDeadline:  sql.NullTime{Time: skipDeadline, Valid: true},
		CatchUpStatus:    string(models.CatchUpStatusAvailable),
	}

	got, err := dbDraftToModel(row, []SkippedPickRow{skip})
	require.NoError(t, err)
	assert.Equal(t, d.DraftOrder, got.DraftOrder)
	assert.Equal(t, d.OnTheClock, got.OnTheClock)
	assert.Equal(t, d.Configuration, got.Configuration)
	assert.Equal(t, d.TimeBank, got.TimeBank)
	assert.Equal(t, int64(7), got.Version)
	assert.Nil(t, got.ScheduledStart)
	require.Len(t, got.SkipQueue, 1)
	assert.Equal(t, models.CatchUpStatusAvailable, got.SkipQueue[0].CatchUpStatus)
	require.NotNil(t, got.SkipQueue[0].CatchUpDeadline)
	assert.Equal(t, skipDeadline, *got.SkipQueue[0].CatchUpDeadline)
	assert.Nil(t, got.SkipQueue[0].PlayerID)
}

func TestDraftRowWithoutClock(t *testing.T) {
	d := &models.Draft{
		ID:            uuid.New(),
		Status:        models.DraftStatusScheduled,
		Configuration: models.DefaultDraftConfiguration(),
	}
	row, err := modelToDraftRow(d)
	require.NoError(t, err)
	assert.False(t, row.ClockTeamID.Valid)
	assert.False(t, row.TimeBank.Valid)

	got, err := dbDraftToModel(row, nil)
	require.NoError(t, err)
	assert.Nil(t, got.OnTheClock)
	assert.Nil(t, got.TimeBank)
	assert.Empty(t, got.SkipQueue)
}

func TestDraftRowRejectsMalformedOrder(t *testing.T) {
	_, err := dbDraftToModel(DraftRow{DraftOrder: pq.StringArray{"not-a-uuid"}}, nil)
	assert.Error(t, err)
}

func TestUpdateDraftIsVersionGuarded(t *testing.T) {
	db := &execRecorder{affected: 0}
	n, err := New(db).UpdateDraft(context.Background(), UpdateDraftParams{
		ID:              uuid.New(),
		ExpectedVersion: 4,
		Status:          string(models.DraftStatusPaused),
	})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, db.query, "WHERE id = $1 AND version = $2")
	assert.Contains(t, db.query, "version = version + 1")
	require.Len(t, db.args, 19)
	assert.Equal(t, int64(4), db.args[1])
}

func TestUpsertSkippedPickOnlyMovesAvailableSkips(t *testing.T) {
	db := &execRecorder{affected: 1}
	player := uuid.New()
	row := modelToSkipRow(models.SkippedPick{
		ID:            uuid.New(),
		CatchUpStatus: models.CatchUpStatusCompleted,
		PlayerID:      &player,
	})

	require.NoError(t, New(db).UpsertSkippedPick(context.Background(), row))
	assert.Contains(t, db.query, "ON CONFLICT (id) DO UPDATE")
	assert.Contains(t, db.query, "WHERE skipped_picks.catch_up_status = 'available'")
	require.Len(t, db.args, 14)
	assert.Equal(t, string(models.CatchUpStatusCompleted), db.args[11])
	assert.Equal(t, uuid.NullUUID{UUID: player, Valid: true}, db.args[13])
}
