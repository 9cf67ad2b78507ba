// Package postgres persists drafts, the pick ledger, skips and the outbox
// with database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/lib/pq"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/mcdev12/bbdraft/go/internal/sqlutil"
	"github.com/rs/zerolog/log"
)

const uniqueViolation = "23505"

type Repository struct {
	db      *sql.DB
	queries *Queries
	clock   clockwork.Clock
}

func NewRepository(db *sql.DB, clock clockwork.Clock) *Repository {
	return &Repository{
		db:      db,
		queries: New(db),
		clock:   clock,
	}
}

// Queries exposes the bound query set for collaborators sharing the
// connection, such as the outbox listener.
func (r *Repository) Queries() *Queries {
	return r.queries
}

func (r *Repository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row, err := r.queries.GetDraft(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return r.loadDraft(ctx, r.queries, row)
}

func (r *Repository) GetDraftByLeague(ctx context.Context, leagueID uuid.UUID) (*models.Draft, error) {
	row, err := r.queries.GetDraftByLeague(ctx, leagueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft by league: %w", err)
	}
	return r.loadDraft(ctx, r.queries, row)
}

func (r *Repository) ListDraftsByStatus(ctx context.Context, status models.DraftStatus) ([]*models.Draft, error) {
	rows, err := r.queries.ListDraftsByStatus(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	drafts := make([]*models.Draft, 0, len(rows))
	for _, row := range rows {
		d, err := r.loadDraft(ctx, r.queries, row)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}

func (r *Repository) loadDraft(ctx context.Context, q *Queries, row DraftRow) (*models.Draft, error) {
	skips, err := q.ListSkippedPicks(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skipped picks: %w", err)
	}
	return dbDraftToModel(row, skips)
}

func (r *Repository) Apply(ctx context.Context, m store.Mutation) error {
	d := m.Draft
	now := r.clock.Now().UTC()

	row, err := modelToDraftRow(d)
	if err != nil {
		return err
	}

	err = sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *Queries) error {
		if m.Create {
			row.Version = 1
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}
			row.UpdatedAt = now
			if err := q.InsertDraft(ctx, row); err != nil {
				return mapConstraint(err, "failed to insert draft")
			}
		} else {
			n, err := q.UpdateDraft(ctx, UpdateDraftParams{
				ID:                 row.ID,
				ExpectedVersion:    d.Version,
				Status:             row.Status,
				ScheduledStart:     row.ScheduledStart,
				ActualStart:        row.ActualStart,
				PausedAt:           row.PausedAt,
				CompletedAt:        row.CompletedAt,
				CurrentRound:       row.CurrentRound,
				CurrentPick:        row.CurrentPick,
				CurrentOverallPick: row.CurrentOverallPick,
				PickTimer:          row.PickTimer,
				DraftOrder:         row.DraftOrder,
				ClockTeamID:        row.ClockTeamID,
				ClockStartedAt:     row.ClockStartedAt,
				ClockExpiresAt:     row.ClockExpiresAt,
				Configuration:      row.Configuration,
				TimeBank:           row.TimeBank,
				Statistics:         row.Statistics,
				UpdatedAt:          now,
			})
			if err != nil {
				return fmt.Errorf("failed to update draft: %w", err)
			}
			if n == 0 {
				if _, err := q.GetDraft(ctx, d.ID); errors.Is(err, sql.ErrNoRows) {
					return store.ErrNotFound
				}
				return store.ErrVersionConflict
			}
		}

		for _, s := range d.SkipQueue {
			if err := q.UpsertSkippedPick(ctx, modelToSkipRow(s)); err != nil {
				return fmt.Errorf("failed to save skipped pick: %w", err)
			}
		}

		if m.Pick != nil {
			if err := q.InsertDraftPick(ctx, modelToPickRow(*m.Pick)); err != nil {
				return mapConstraint(err, "failed to insert draft pick")
			}
		}

		if m.Roster != nil {
			if err := q.InsertRoster(ctx, RosterRow{
				ID:              m.Roster.ID,
				FantasyTeamID:   m.Roster.FantasyTeamID,
				PlayerID:        m.Roster.PlayerID,
				Position:        m.Roster.Position,
				AcquisitionType: string(m.Roster.AcquisitionType),
				AcquiredAt:      m.Roster.AcquiredAt,
			}); err != nil {
				return fmt.Errorf("failed to insert roster entry: %w", err)
			}
		}

		for teamID, pos := range m.TeamPositions {
			if err := q.UpdateTeamDraftPosition(ctx, teamID, int32(pos)); err != nil {
				return fmt.Errorf("failed to update draft position: %w", err)
			}
		}

		if m.LeagueStatus != "" {
			if err := q.UpdateLeagueStatus(ctx, d.LeagueID, string(m.LeagueStatus)); err != nil {
				return fmt.Errorf("failed to update league status: %w", err)
			}
		}

		for _, evt := range m.Events {
			if err := evt.Validate(); err != nil {
				return fmt.Errorf("invalid %s event: %w", evt.Type, err)
			}
			if err := q.InsertOutboxEvent(ctx, OutboxRow{
				ID:        evt.ID,
				DraftID:   evt.DraftID,
				EventType: string(evt.Type),
				Payload:   evt.Data,
				CreatedAt: evt.Timestamp,
			}); err != nil {
				return fmt.Errorf("failed to insert outbox event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if m.Create {
		d.Version = 1
		d.CreatedAt = row.CreatedAt
	} else {
		d.Version++
	}
	d.UpdatedAt = now

	log.Debug().
		Str("draft_id", d.ID.String()).
		Int64("version", d.Version).
		Int("events", len(m.Events)).
		Msg("draft mutation committed")
	return nil
}

func (r *Repository) GetPick(ctx context.Context, draftID uuid.UUID, overallPick int) (*models.DraftPick, error) {
	row, err := r.queries.GetDraftPick(ctx, draftID, int32(overallPick))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft pick: %w", err)
	}
	p := dbPickToModel(row)
	return &p, nil
}

func (r *Repository) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := r.queries.ListDraftPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list draft picks: %w", err)
	}
	picks := make([]models.DraftPick, 0, len(rows))
	for _, row := range rows {
		picks = append(picks, dbPickToModel(row))
	}
	return picks, nil
}

func (r *Repository) IsPlayerDrafted(ctx context.Context, draftID, playerID uuid.UUID) (bool, error) {
	drafted, err := r.queries.IsPlayerDrafted(ctx, draftID, playerID)
	if err != nil {
		return false, fmt.Errorf("failed to check drafted player: %w", err)
	}
	return drafted, nil
}

// mapConstraint turns unique violations on the ledger and draft tables into
// store sentinels.
func mapConstraint(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		switch pqErr.Constraint {
		case "draft_picks_pkey":
			return store.ErrSlotFilled
		case "draft_picks_player_unique":
			return store.ErrPlayerDrafted
		case "drafts_league_id_key":
			return store.ErrDraftExists
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func dbDraftToModel(row DraftRow, skips []SkippedPickRow) (*models.Draft, error) {
	order, err := parseUUIDs(row.DraftOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft order: %w", err)
	}

	d := &models.Draft{
		ID:                 row.ID,
		LeagueID:           row.LeagueID,
		SeasonYear:         int(row.SeasonYear),
		Mode:               models.DraftMode(row.Mode),
		Status:             models.DraftStatus(row.Status),
		Format:             models.DraftFormat(row.Format),
		ScheduledStart:     sqlutil.FromSqlTime(row.ScheduledStart),
		ActualStart:        sqlutil.FromSqlTime(row.ActualStart),
		PausedAt:           sqlutil.FromSqlTime(row.PausedAt),
		CompletedAt:        sqlutil.FromSqlTime(row.CompletedAt),
		CurrentRound:       int(row.CurrentRound),
		CurrentPick:        int(row.CurrentPick),
		CurrentOverallPick: int(row.CurrentOverallPick),
		TotalRounds:        int(row.TotalRounds),
		TeamCount:          int(row.TeamCount),
		PickTimer:          int(row.PickTimer),
		DraftOrder:         order,
		Version:            row.Version,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}

	if row.ClockTeamID.Valid && row.ClockStartedAt.Valid && row.ClockExpiresAt.Valid {
		d.OnTheClock = &models.OnTheClock{
			TeamID:       row.ClockTeamID.UUID,
			ClockStarted: row.ClockStartedAt.Time,
			ClockExpires: row.ClockExpiresAt.Time,
		}
	}

	if err := json.Unmarshal(row.Configuration, &d.Configuration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft configuration: %w", err)
	}
	if err := json.Unmarshal(row.Statistics, &d.Statistics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft statistics: %w", err)
	}
	if row.TimeBank.Valid {
		if err := json.Unmarshal(row.TimeBank.RawMessage, &d.TimeBank); err != nil {
			return nil, fmt.Errorf("failed to unmarshal time bank: %w", err)
		}
	}

	d.SkipQueue = make([]models.SkippedPick, 0, len(skips))
	for _, s := range skips {
		d.SkipQueue = append(d.SkipQueue, dbSkipToModel(s))
	}
	return d, nil
}

func modelToDraftRow(d *models.Draft) (DraftRow, error) {
	cfg, err := json.Marshal(d.Configuration)
	if err != nil {
		return DraftRow{}, fmt.Errorf("failed to marshal draft configuration: %w", err)
	}
	stats, err := json.Marshal(d.Statistics)
	if err != nil {
		return DraftRow{}, fmt.Errorf("failed to marshal draft statistics: %w", err)
	}
	var timeBank []byte
	if d.TimeBank != nil {
		if timeBank, err = json.Marshal(d.TimeBank); err != nil {
			return DraftRow{}, fmt.Errorf("failed to marshal time bank: %w", err)
		}
	}

	row := DraftRow{
		ID:                 d.ID,
		LeagueID:           d.LeagueID,
		SeasonYear:         int32(d.SeasonYear),
		Mode:               string(d.Mode),
		Status:             string(d.Status),
		Format:             string(d.Format),
		ScheduledStart:     sqlutil.ToSqlTime(d.ScheduledStart),
		ActualStart:        sqlutil.ToSqlTime(d.ActualStart),
		PausedAt:           sqlutil.ToSqlTime(d.PausedAt),
		CompletedAt:        sqlutil.ToSqlTime(d.CompletedAt),
		CurrentRound:       int32(d.CurrentRound),
		CurrentPick:        int32(d.CurrentPick),
		CurrentOverallPick: int32(d.CurrentOverallPick),
		TotalRounds:        int32(d.TotalRounds),
		TeamCount:          int32(d.TeamCount),
		PickTimer:          int32(d.PickTimer),
		DraftOrder:         uuidStrings(d.DraftOrder),
		Configuration:      cfg,
		TimeBank:           sqlutil.ToNullRawMessage(timeBank),
		Statistics:         stats,
		Version:            d.Version,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	if d.OnTheClock != nil {
		row.ClockTeamID = sqlutil.ToNullUUID(&d.OnTheClock.TeamID)
		row.ClockStartedAt = sqlutil.ToSqlTime(&d.OnTheClock.ClockStarted)
		row.ClockExpiresAt = sqlutil.ToSqlTime(&d.OnTheClock.ClockExpires)
	}
	return row, nil
}

func dbSkipToModel(row SkippedPickRow) models.SkippedPick {
	return models.SkippedPick{
		ID:                 row.ID,
		DraftID:            row.DraftID,
		TeamID:             row.TeamID,
		Round:              int(row.Round),
		PickInRound:        int(row.PickInRound),
		OverallPick:        int(row.OverallPick),
		SkippedAt:          row.SkippedAt,
		Reason:             models.SkipReason(row.Reason),
		OriginalDeadline:   row.OriginalDeadline,
		CatchUpEligible:    row.CatchUpEligible,
		CatchUpDeadline:    sqlutil.FromSqlTime(row.CatchUpDeadline),
		CatchUpStatus:      models.CatchUpStatus(row.CatchUpStatus),
		CatchUpCompletedAt: sqlutil.FromSqlTime(row.CatchUpCompletedAt),
		PlayerID:           sqlutil.FromNullUUID(row.PlayerID),
	}
}

func modelToSkipRow(s models.SkippedPick) SkippedPickRow {
	return SkippedPickRow{
		ID:                 s.ID,
		DraftID:            s.DraftID,
		TeamID:             s.TeamID,
		Round:              int32(s.Round),
		PickInRound:        int32(s.PickInRound),
		OverallPick:        int32(s.OverallPick),
		SkippedAt:          s.SkippedAt,
		Reason:             string(s.Reason),
		OriginalDeadline:   s.OriginalDeadline,
		CatchUpEligible:    s.CatchUpEligible,
		CatchUpDeadline:    sqlutil.ToSqlTime(s.CatchUpDeadline),
		CatchUpStatus:      string(s.CatchUpStatus),
		CatchUpCompletedAt: sqlutil.ToSqlTime(s.CatchUpCompletedAt),
		PlayerID:           sqlutil.ToNullUUID(s.PlayerID),
	}
}

func dbPickToModel(row DraftPickRow) models.DraftPick {
	return models.DraftPick{
		DraftID:       row.DraftID,
		OverallPick:   int(row.OverallPick),
		Round:         int(row.Round),
		PickInRound:   int(row.PickInRound),
		TeamID:        row.TeamID,
		PlayerID:      row.PlayerID,
		PlayerName:    row.PlayerName,
		Position:      row.Position,
		MLBTeam:       row.MlbTeam,
		PickedAt:      row.PickedAt,
		PickDuration:  int(row.PickDuration),
		WasAutoPick:   row.WasAutoPick,
		WasCatchUp:    row.WasCatchUp,
		WasFromQueue:  row.WasFromQueue,
		QueuePosition: sqlutil.FromSqlInt32(row.QueuePosition),
	}
}

func modelToPickRow(p models.DraftPick) DraftPickRow {
	return DraftPickRow{
		DraftID:       p.DraftID,
		OverallPick:   int32(p.OverallPick),
		Round:         int32(p.Round),
		PickInRound:   int32(p.PickInRound),
		TeamID:        p.TeamID,
		PlayerID:      p.PlayerID,
		PlayerName:    p.PlayerName,
		Position:      p.Position,
		MlbTeam:       p.MLBTeam,
		PickedAt:      p.PickedAt,
		PickDuration:  int32(p.PickDuration),
		WasAutoPick:   p.WasAutoPick,
		WasCatchUp:    p.WasCatchUp,
		WasFromQueue:  p.WasFromQueue,
		QueuePosition: sqlutil.ToSqlInt32(p.QueuePosition),
	}
}

func uuidStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func parseUUIDs(ss []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, len(ss))
	for i, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}
