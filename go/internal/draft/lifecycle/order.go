package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RunLottery replaces the draft order of a scheduled draft and renumbers
// the teams' draft positions.
func (a *App) RunLottery(ctx context.Context, req LotteryRequest) (*LotteryResult, error) {
	method := req.Method
	if method == "" {
		method = LotteryRandom
	}
	if method != LotteryRandom && method != LotteryWeighted {
		return nil, drafterr.Validation(fmt.Sprintf("unknown lottery method %q", req.Method))
	}

	var result *LotteryResult
	err := a.update(ctx, req.DraftID, req.UserID, func(d *models.Draft) error {
		if d.Status != models.DraftStatusScheduled {
			return drafterr.InvalidState("can only run the lottery before the draft starts")
		}

		teams, err := a.teams.ListTeamsByLeague(ctx, d.LeagueID)
		if err != nil {
			return fmt.Errorf("failed to list teams: %w", err)
		}
		if len(teams) < turn.MinTeams {
			return drafterr.Validation(fmt.Sprintf("need at least %d teams to run a lottery", turn.MinTeams))
		}
		ids := teamIDs(teams)

		var order []uuid.UUID
		switch method {
		case LotteryWeighted:
			order, err = turn.WeightedLotteryOrder(ids, req.Weights, a.rng)
			if err != nil {
				return err
			}
		default:
			order = turn.RandomOrder(ids, a.rng)
		}

		now := a.clock.Now()
		next := d.Clone()
		next.DraftOrder = order
		next.TeamCount = len(order)

		err = a.drafts.Apply(ctx, store.Mutation{
			Draft:         next,
			TeamPositions: positions(order),
			Events: []events.Envelope{
				events.MustNew(d.ID, events.TypeOrderUpdated, events.OrderUpdatedPayload{
					DraftOrder: order,
					Method:     string(method),
				}, now),
			},
		})
		if err != nil {
			return store.Classify(err, "draft")
		}
		result = &LotteryResult{DraftOrder: order}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("draft_id", req.DraftID.String()).Str("method", string(method)).Msg("draft lottery run")
	return result, nil
}
