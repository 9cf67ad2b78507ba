package pick

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ApplyCatchUp fills a skipped slot with the team's selection. The pointer
// does not move.
func (a *App) ApplyCatchUp(ctx context.Context, req CatchUpRequest) (*models.DraftPick, error) {
	var pick *models.DraftPick
	err := a.withRetry(ctx, req.DraftID, func(d *models.Draft) error {
		p, err := a.catchUp(ctx, d, req)
		if err != nil {
			return err
		}
		pick = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pick, nil
}

func (a *App) catchUp(ctx context.Context, d *models.Draft, req CatchUpRequest) (*models.DraftPick, error) {
	if d.Status != models.DraftStatusInProgress {
		return nil, drafterr.InvalidState("draft is not in progress")
	}

	team, err := a.teams.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, store.Classify(err, "team")
	}
	if team.OwnerID != req.UserID {
		return nil, drafterr.Unauthorized("you do not own this team")
	}

	skip := d.FindSkip(req.SkipID)
	if skip == nil || skip.TeamID != req.TeamID {
		return nil, drafterr.NotFound("skipped pick not found for this team")
	}
	if skip.CatchUpStatus != models.CatchUpStatusAvailable {
		return nil, drafterr.InvalidState("catch-up pick is %s", skip.CatchUpStatus)
	}
	now := a.clock.Now()
	if !skip.CatchUpOpen(now) {
		return nil, drafterr.InvalidState("catch-up window has closed")
	}

	player, err := a.players.GetPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, store.Classify(err, "player")
	}
	drafted, err := a.ledger.IsPlayerDrafted(ctx, d.ID, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	}
	if drafted {
		return nil, drafterr.AlreadyDrafted("%s has already been drafted", player.FullName)
	}

	pick := models.DraftPick{
		DraftID:     d.ID,
		OverallPick: skip.OverallPick,
		Round:       skip.Round,
		PickInRound: skip.PickInRound,
		TeamID:      team.ID,
		PlayerID:    player.ID,
		PlayerName:  player.FullName,
		Position:    player.PrimaryPosition,
		MLBTeam:     player.MLBTeam,
		PickedAt:    now,
		WasCatchUp:  true,
	}

	next := d.Clone()
	s := next.FindSkip(skip.ID)
	completedAt := now
	playerID := player.ID
	s.CatchUpStatus = models.CatchUpStatusCompleted
	s.CatchUpCompletedAt = &completedAt
	s.PlayerID = &playerID
	next.Statistics.CatchUpCount++

	m := store.Mutation{
		Draft: next,
		Pick:  &pick,
		Roster: &models.Roster{
			ID:              uuid.New(),
			FantasyTeamID:   team.ID,
			PlayerID:        player.ID,
			Position:        player.PrimaryPosition,
			AcquiredAt:      now,
			AcquisitionType: models.AcquisitionTypeDraft,
		},
		Events: []events.Envelope{
			events.MustNew(d.ID, events.TypeCatchUpMade, events.CatchUpMadePayload{
				SkipID:   skip.ID,
				Pick:     pick,
				TeamName: team.Name,
			}, now),
		},
	}
	if err := a.drafts.Apply(ctx, m); err != nil {
		return nil, store.Classify(err, "draft")
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("team_id", team.ID.String()).
		Str("skip_id", skip.ID.String()).
		Int("overall_pick", pick.OverallPick).
		Msg("catch-up pick committed")
	return &pick, nil
}
