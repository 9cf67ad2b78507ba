package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrNoPlayers means every player in the pool has been drafted.
var ErrNoPlayers = errors.New("no available players")

type AutoPickStrategy interface {
	// Select chooses a player for team at the draft's current slot.
	Select(ctx context.Context, d *models.Draft, team *models.FantasyTeam) (Selection, error)
}

// QueueStrategy takes the first undrafted player from the team's queue,
// whether or not queue picks are currently enabled, and otherwise falls back to the first available player in listing order.
type QueueStrategy struct {
	ledger  store.PickLedger
	players store.PlayerDirectory
}

func NewQueueStrategy(ledger store.PickLedger, players store.PlayerDirectory) *QueueStrategy {
	return &QueueStrategy{ledger: ledger, players: players}
}

// Select implements AutoPickStrategy.Select
func (s *QueueStrategy) Select(ctx context.Context, d *models.Draft, team *models.FantasyTeam) (Selection, error) {
	picks, err := s.ledger.ListPicks(ctx, d.ID)
	if err != nil {
		return Selection{}, fmt.Errorf("failed to list picks: %w", err)
	}
	drafted := make(map[uuid.UUID]bool, len(picks))
	exclude := make([]uuid.UUID, 0, len(picks))
	for _, p := range picks {
		drafted[p.PlayerID] = true
		exclude = append(exclude, p.PlayerID)
	}

	for i, playerID := range team.DraftQueue {
		if drafted[playerID] {
			continue
		}
		player, err := s.players.GetPlayer(ctx, playerID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return Selection{}, fmt.Errorf("failed to get queued player: %w", err)
		}
		pos := i + 1
		return Selection{Player: player, FromQueue: true, QueuePosition: &pos}, nil
	}

	available, err := s.players.ListPlayers(ctx, store.PlayerFilter{Exclude: exclude, Limit: 1})
	if err != nil {
		return Selection{}, fmt.Errorf("failed to list available players: %w", err)
	}
	if len(available) == 0 {
		return Selection{}, ErrNoPlayers
	}
	return Selection{Player: available[0]}, nil
}

// HandleTimeout resolves an expired clock for overallPick. It is a no-op
// when the draft has moved on, is not running, or the clock has not yet
// expired, so callers may fire it more than once.
func (a *App) HandleTimeout(ctx context.Context, draftID uuid.UUID, overallPick int) error {
	err := a.withRetry(ctx, draftID, func(d *models.Draft) error {
		if d.Status != models.DraftStatusInProgress || d.CurrentOverallPick != overallPick {
			return nil
		}
		if d.OnTheClock == nil || a.clock.Now().Before(d.OnTheClock.ClockExpires) {
			return nil
		}

		if d.Configuration.AutoPickOnTimeout {
			// only an exhausted pool falls through to a skip; anything else
			// is left for the clock to retry
			err := a.autoPick(ctx, d)
			if !errors.Is(err, ErrNoPlayers) {
				return err
			}
			log.Info().
				Str("draft_id", draftID.String()).
				Int("overall_pick", overallPick).
				Msg("no players left to auto-pick, skipping")
		}

		_, err := a.skipCurrent(ctx, d, models.SkipReasonTimerExpired)
		return err
	})
	// losing the slot to a manual pick is the expected race
	if drafterr.KindOf(err) == drafterr.KindOutOfTurn || drafterr.KindOf(err) == drafterr.KindAlreadyDrafted {
		log.Debug().Err(err).Str("draft_id", draftID.String()).Msg("timeout already resolved")
		return nil
	}
	return err
}

func (a *App) autoPick(ctx context.Context, d *models.Draft) error {
	slot, err := turn.ForDraft(d)
	if err != nil {
		return err
	}
	team, err := a.teams.GetTeam(ctx, slot.TeamID)
	if err != nil {
		return store.Classify(err, "team")
	}
	sel, err := a.strategy.Select(ctx, d, team)
	if err != nil {
		return err
	}
	_, err = a.commitPick(ctx, d, team, slot, pickOptions{auto: true, selection: sel})
	return err
}
