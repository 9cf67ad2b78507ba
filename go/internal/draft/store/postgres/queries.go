package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"
)

const draftColumns = `id, league_id, season_year, mode, status, format,
    scheduled_start, actual_start, paused_at, completed_at,
    current_round, current_pick, current_overall_pick, total_rounds, team_count, pick_timer,
    draft_order, clock_team_id, clock_started_at, clock_expires_at,
    configuration, time_bank, statistics, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDraft(row rowScanner) (DraftRow, error) {
	var i DraftRow
	err := row.Scan(
		&i.ID,
		&i.LeagueID,
		&i.SeasonYear,
		&i.Mode,
		&i.Status,
		&i.Format,
		&i.ScheduledStart,
		&i.ActualStart,
		&i.PausedAt,
		&i.CompletedAt,
		&i.CurrentRound,
		&i.CurrentPick,
		&i.CurrentOverallPick,
		&i.TotalRounds,
		&i.TeamCount,
		&i.PickTimer,
		&i.DraftOrder,
		&i.ClockTeamID,
		&i.ClockStartedAt,
		&i.ClockExpiresAt,
		&i.Configuration,
		&i.TimeBank,
		&i.Statistics,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDraft = `SELECT ` + draftColumns + ` FROM drafts WHERE id = $1`

func (q *Queries) GetDraft(ctx context.Context, id uuid.UUID) (DraftRow, error) {
	return scanDraft(q.db.QueryRowContext(ctx, getDraft, id))
}

const getDraftByLeague = `SELECT ` + draftColumns + ` FROM drafts WHERE league_id = $1`

func (q *Queries) GetDraftByLeague(ctx context.Context, leagueID uuid.UUID) (DraftRow, error) {
	return scanDraft(q.db.QueryRowContext(ctx, getDraftByLeague, leagueID))
}

const listDraftsByStatus = `SELECT ` + draftColumns + ` FROM drafts WHERE status = $1 ORDER BY created_at`

func (q *Queries) ListDraftsByStatus(ctx context.Context, status string) ([]DraftRow, error) {
	rows, err := q.db.QueryContext(ctx, listDraftsByStatus, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftRow
	for rows.Next() {
		i, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertDraft = `INSERT INTO drafts (` + draftColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
        $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`

func (q *Queries) InsertDraft(ctx context.Context, arg DraftRow) error {
	_, err := q.db.ExecContext(ctx, insertDraft,
		arg.ID,
		arg.LeagueID,
		arg.SeasonYear,
		arg.Mode,
		arg.Status,
		arg.Format,
		arg.ScheduledStart,
		arg.ActualStart,
		arg.PausedAt,
		arg.CompletedAt,
		arg.CurrentRound,
		arg.CurrentPick,
		arg.CurrentOverallPick,
		arg.TotalRounds,
		arg.TeamCount,
		arg.PickTimer,
		arg.DraftOrder,
		arg.ClockTeamID,
		arg.ClockStartedAt,
		arg.ClockExpiresAt,
		arg.Configuration,
		arg.TimeBank,
		arg.Statistics,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

// updateDraft only matches when the stored version equals $2, so a stale
// read affects zero rows.
const updateDraft = `UPDATE drafts SET
    status = $3,
    scheduled_start = $4,
    actual_start = $5,
    paused_at = $6,
    completed_at = $7,
    current_round = $8,
    current_pick = $9,
    current_overall_pick = $10,
    pick_timer = $11,
    draft_order = $12,
    clock_team_id = $13,
    clock_started_at = $14,
    clock_expires_at = $15,
    configuration = $16,
    time_bank = $17,
    statistics = $18,
    version = version + 1,
    updated_at = $19
WHERE id = $1 AND version = $2`

type UpdateDraftParams struct {
	ID                 uuid.UUID
	ExpectedVersion    int64
	Status             string
	ScheduledStart     sql.NullTime
	ActualStart        sql.NullTime
	PausedAt           sql.NullTime
	CompletedAt        sql.NullTime
	CurrentRound       int32
	CurrentPick        int32
	CurrentOverallPick int32
	PickTimer          int32
	DraftOrder         pq.StringArray
	ClockTeamID        uuid.NullUUID
	ClockStartedAt     sql.NullTime
	ClockExpiresAt     sql.NullTime
	Configuration      json.RawMessage
	TimeBank           pqtype.NullRawMessage
	Statistics         json.RawMessage
	UpdatedAt          time.Time
}

func (q *Queries) UpdateDraft(ctx context.Context, arg UpdateDraftParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateDraft,
		arg.ID,
		arg.ExpectedVersion,
		arg.Status,
		arg.ScheduledStart,
		arg.ActualStart,
		arg.PausedAt,
		arg.CompletedAt,
		arg.CurrentRound,
		arg.CurrentPick,
		arg.CurrentOverallPick,
		arg.PickTimer,
		arg.DraftOrder,
		arg.ClockTeamID,
		arg.ClockStartedAt,
		arg.ClockExpiresAt,
		arg.Configuration,
		arg.TimeBank,
		arg.Statistics,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const skippedPickColumns = `id, draft_id, team_id, round, pick_in_round, overall_pick, skipped_at, reason,
    original_deadline, catch_up_eligible, catch_up_deadline, catch_up_status, catch_up_completed_at, player_id`

const listSkippedPicks = `SELECT ` + skippedPickColumns + `
FROM skipped_picks WHERE draft_id = $1 ORDER BY skipped_at, overall_pick`

func (q *Queries) ListSkippedPicks(ctx context.Context, draftID uuid.UUID) ([]SkippedPickRow, error) {
	rows, err := q.db.QueryContext(ctx, listSkippedPicks, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SkippedPickRow
	for rows.Next() {
		var i SkippedPickRow
		if err := rows.Scan(
			&i.ID,
			&i.DraftID,
			&i.TeamID,
			&i.Round,
			&i.PickInRound,
			&i.OverallPick,
			&i.SkippedAt,
			&i.Reason,
			&i.OriginalDeadline,
			&i.CatchUpEligible,
			&i.CatchUpDeadline,
			&i.CatchUpStatus,
			&i.CatchUpCompletedAt,
			&i.PlayerID,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Skips only move forward from available, so the update is guarded on it.
const upsertSkippedPick = `INSERT INTO skipped_picks (` + skippedPickColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET
    catch_up_status = EXCLUDED.catch_up_status,
    catch_up_completed_at = EXCLUDED.catch_up_completed_at,
    player_id = EXCLUDED.player_id
WHERE skipped_picks.catch_up_status = 'available'`

func (q *Queries) UpsertSkippedPick(ctx context.Context, arg SkippedPickRow) error {
	_, err := q.db.ExecContext(ctx, upsertSkippedPick,
		arg.ID,
		arg.DraftID,
		arg.TeamID,
		arg.Round,
		arg.PickInRound,
		arg.OverallPick,
		arg.SkippedAt,
		arg.Reason,
		arg.OriginalDeadline,
		arg.CatchUpEligible,
		arg.CatchUpDeadline,
		arg.CatchUpStatus,
		arg.CatchUpCompletedAt,
		arg.PlayerID,
	)
	return err
}

const draftPickColumns = `draft_id, overall_pick, round, pick_in_round, team_id, player_id, player_name,
    position, mlb_team, picked_at, pick_duration, was_auto_pick, was_catch_up, was_from_queue, queue_position`

func scanDraftPick(row rowScanner) (DraftPickRow, error) {
	var i DraftPickRow
	err := row.Scan(
		&i.DraftID,
		&i.OverallPick,
		&i.Round,
		&i.PickInRound,
		&i.TeamID,
		&i.PlayerID,
		&i.PlayerName,
		&i.Position,
		&i.MlbTeam,
		&i.PickedAt,
		&i.PickDuration,
		&i.WasAutoPick,
		&i.WasCatchUp,
		&i.WasFromQueue,
		&i.QueuePosition,
	)
	return i, err
}

const insertDraftPick = `INSERT INTO draft_picks (` + draftPickColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

func (q *Queries) InsertDraftPick(ctx context.Context, arg DraftPickRow) error {
	_, err := q.db.ExecContext(ctx, insertDraftPick,
		arg.DraftID,
		arg.OverallPick,
		arg.Round,
		arg.PickInRound,
		arg.TeamID,
		arg.PlayerID,
		arg.PlayerName,
		arg.Position,
		arg.MlbTeam,
		arg.PickedAt,
		arg.PickDuration,
		arg.WasAutoPick,
		arg.WasCatchUp,
		arg.WasFromQueue,
		arg.QueuePosition,
	)
	return err
}

const getDraftPick = `SELECT ` + draftPickColumns + ` FROM draft_picks WHERE draft_id = $1 AND overall_pick = $2`

func (q *Queries) GetDraftPick(ctx context.Context, draftID uuid.UUID, overallPick int32) (DraftPickRow, error) {
	return scanDraftPick(q.db.QueryRowContext(ctx, getDraftPick, draftID, overallPick))
}

const listDraftPicks = `SELECT ` + draftPickColumns + ` FROM draft_picks WHERE draft_id = $1 ORDER BY overall_pick`

func (q *Queries) ListDraftPicks(ctx context.Context, draftID uuid.UUID) ([]DraftPickRow, error) {
	rows, err := q.db.QueryContext(ctx, listDraftPicks, draftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DraftPickRow
	for rows.Next() {
		i, err := scanDraftPick(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const isPlayerDrafted = `SELECT EXISTS (SELECT 1 FROM draft_picks WHERE draft_id = $1 AND player_id = $2)`

func (q *Queries) IsPlayerDrafted(ctx context.Context, draftID, playerID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, isPlayerDrafted, draftID, playerID).Scan(&exists)
	return exists, err
}

const insertRoster = `INSERT INTO roster (id, fantasy_team_id, player_id, position, acquisition_type, acquired_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) InsertRoster(ctx context.Context, arg RosterRow) error {
	_, err := q.db.ExecContext(ctx, insertRoster,
		arg.ID,
		arg.FantasyTeamID,
		arg.PlayerID,
		arg.Position,
		arg.AcquisitionType,
		arg.AcquiredAt,
	)
	return err
}

const updateTeamDraftPosition = `UPDATE fantasy_teams SET draft_position = $2 WHERE id = $1`

func (q *Queries) UpdateTeamDraftPosition(ctx context.Context, teamID uuid.UUID, position int32) error {
	_, err := q.db.ExecContext(ctx, updateTeamDraftPosition, teamID, position)
	return err
}

const updateLeagueStatus = `UPDATE leagues SET status = $2, updated_at = now() WHERE id = $1`

func (q *Queries) UpdateLeagueStatus(ctx context.Context, leagueID uuid.UUID, status string) error {
	_, err := q.db.ExecContext(ctx, updateLeagueStatus, leagueID, status)
	return err
}

const insertOutboxEvent = `INSERT INTO draft_outbox (id, draft_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (q *Queries) InsertOutboxEvent(ctx context.Context, arg OutboxRow) error {
	_, err := q.db.ExecContext(ctx, insertOutboxEvent,
		arg.ID,
		arg.DraftID,
		arg.EventType,
		arg.Payload,
		arg.CreatedAt,
	)
	return err
}

const outboxColumns = `id, draft_id, event_type, payload, created_at, sent_at`

func scanOutbox(row rowScanner) (OutboxRow, error) {
	var i OutboxRow
	err := row.Scan(
		&i.ID,
		&i.DraftID,
		&i.EventType,
		&i.Payload,
		&i.CreatedAt,
		&i.SentAt,
	)
	return i, err
}

const fetchOutboxByID = `SELECT ` + outboxColumns + ` FROM draft_outbox WHERE id = $1`

func (q *Queries) FetchOutboxByID(ctx context.Context, id uuid.UUID) (OutboxRow, error) {
	return scanOutbox(q.db.QueryRowContext(ctx, fetchOutboxByID, id))
}

const fetchUnsentOutbox = `SELECT ` + outboxColumns + `
FROM draft_outbox WHERE sent_at IS NULL ORDER BY created_at LIMIT $1`

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxRow, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OutboxRow
	for rows.Next() {
		i, err := scanOutbox(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOutboxSent = `UPDATE draft_outbox SET sent_at = now() WHERE id = $1 AND sent_at IS NULL`

func (q *Queries) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markOutboxSent, id)
	return err
}
