// Package pick applies selections to a live draft: manual picks, auto-picks
// on timeout, skips and catch-up picks.
package pick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// maxCommitAttempts bounds retries after a version conflict that did not
// move the pick pointer.
const maxCommitAttempts = 3

// App handles pick business logic
type App struct {
	drafts   store.DraftStore
	ledger   store.PickLedger
	teams    store.TeamStore
	players  store.PlayerDirectory
	leagues  store.LeagueStore
	strategy AutoPickStrategy
	clock    clockwork.Clock
}

// Deps groups the collaborators App reads and writes through.
type Deps struct {
	Drafts  store.DraftStore
	Ledger  store.PickLedger
	Teams   store.TeamStore
	Players store.PlayerDirectory
	Leagues store.LeagueStore
	// Strategy defaults to QueueStrategy over Ledger and Players.
	Strategy AutoPickStrategy
	Clock    clockwork.Clock
}

// NewApp creates a new pick App
func NewApp(deps Deps) *App {
	a := &App{
		drafts:   deps.Drafts,
		ledger:   deps.Ledger,
		teams:    deps.Teams,
		players:  deps.Players,
		leagues:  deps.Leagues,
		strategy: deps.Strategy,
		clock:    deps.Clock,
	}
	if a.strategy == nil {
		a.strategy = NewQueueStrategy(deps.Ledger, deps.Players)
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	return a
}

// ApplyPick records a manual selection for the team on the clock.
func (a *App) ApplyPick(ctx context.Context, req PickRequest) (*models.DraftPick, error) {
	var (
		pick     *models.DraftPick
		expected int
	)
	err := a.withRetry(ctx, req.DraftID, func(d *models.Draft) error {
		// a conflict that moved the pointer means another pick won the slot
		if expected != 0 && d.CurrentOverallPick != expected {
			return drafterr.OutOfTurn("pick %d has already been made", expected)
		}
		expected = d.CurrentOverallPick

		p, err := a.manualPick(ctx, d, req)
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

func (a *App) manualPick(ctx context.Context, d *models.Draft, req PickRequest) (*models.DraftPick, error) {
	if d.Status != models.DraftStatusInProgress {
		return nil, drafterr.InvalidState("draft is not in progress")
	}

	slot, err := turn.ForDraft(d)
	if err != nil {
		return nil, err
	}
	if slot.TeamID != req.TeamID {
		return nil, drafterr.OutOfTurn("it is not this team's turn to pick")
	}

	team, err := a.teams.GetTeam(ctx, req.TeamID)
	if err != nil {
		return nil, store.Classify(err, "team")
	}
	if team.OwnerID != req.UserID {
		return nil, drafterr.Unauthorized("you do not own this team")
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

	return a.commitPick(ctx, d, team, slot, pickOptions{selection: Selection{Player: player}})
}

// commitPick writes the ledger entry, roster entry and pointer advance for
// the current slot as one mutation.
func (a *App) commitPick(ctx context.Context, d *models.Draft, team *models.FantasyTeam, slot turn.Slot, opts pickOptions) (*models.DraftPick, error) {
	now := a.clock.Now()
	player := opts.selection.Player

	pick := models.DraftPick{
		DraftID:       d.ID,
		OverallPick:   slot.OverallPick,
		Round:         slot.Round,
		PickInRound:   slot.PickInRound,
		TeamID:        team.ID,
		PlayerID:      player.ID,
		PlayerName:    player.FullName,
		Position:      player.PrimaryPosition,
		MLBTeam:       player.MLBTeam,
		PickedAt:      now,
		PickDuration:  pickDuration(d, now),
		WasAutoPick:   opts.auto,
		WasFromQueue:  opts.selection.FromQueue,
		QueuePosition: opts.selection.QueuePosition,
	}

	next := d.Clone()
	next.Statistics.RecordPickDuration(pick.PickDuration)
	if opts.auto {
		next.Statistics.AutoPickCount++
	}
	completed, err := turn.Advance(next, now)
	if err != nil {
		return nil, err
	}

	evts := []events.Envelope{
		events.MustNew(d.ID, events.TypePickMade, events.PickMadePayload{
			Pick:          pick,
			TeamName:      team.Name,
			NextPick:      events.NextPickOf(next),
			TimeRemaining: next.OnTheClock.TimeRemaining(now),
		}, now),
	}
	if opts.auto {
		evts = append(evts, events.MustNew(d.ID, events.TypeAutoPick, events.AutoPickPayload{
			Pick:          pick,
			TeamName:      team.Name,
			FromQueue:     opts.selection.FromQueue,
			NextPick:      events.NextPickOf(next),
			TimeRemaining: next.OnTheClock.TimeRemaining(now),
		}, now))
	}

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
	}
	if completed {
		m.LeagueStatus = models.LeagueStatusInSeason
		evts = append(evts, completedEvent(next, now))
	}
	m.Events = evts

	if err := a.drafts.Apply(ctx, m); err != nil {
		return nil, store.Classify(err, "draft")
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("team_id", team.ID.String()).
		Str("player_id", player.ID.String()).
		Int("overall_pick", pick.OverallPick).
		Bool("auto", opts.auto).
		Bool("completed", completed).
		Msg("pick committed")
	return &pick, nil
}

// withRetry loads the draft and runs fn, reloading and running again when
// the commit lost a version race. fn decides whether the fresh state still
// admits the operation.
func (a *App) withRetry(ctx context.Context, draftID uuid.UUID, fn func(d *models.Draft) error) error {
	for attempt := 1; ; attempt++ {
		d, err := a.drafts.GetDraft(ctx, draftID)
		if err != nil {
			return store.Classify(err, "draft")
		}

		err = fn(d)
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		if attempt >= maxCommitAttempts {
			return drafterr.Conflict("draft changed concurrently, try again")
		}
		log.Debug().
			Str("draft_id", draftID.String()).
			Int("attempt", attempt).
			Msg("draft version conflict, retrying")
	}
}

func (a *App) requireCommissioner(ctx context.Context, d *models.Draft, userID uuid.UUID) error {
	league, err := a.leagues.GetLeague(ctx, d.LeagueID)
	if err != nil {
		return store.Classify(err, "league")
	}
	if league.CommissionerID != userID {
		return drafterr.Unauthorized("only the commissioner can do this")
	}
	return nil
}

func pickDuration(d *models.Draft, now time.Time) int {
	if d.OnTheClock == nil {
		return 0
	}
	secs := int(now.Sub(d.OnTheClock.ClockStarted) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

func completedEvent(d *models.Draft, now time.Time) events.Envelope {
	var duration time.Duration
	if d.ActualStart != nil {
		duration = now.Sub(*d.ActualStart)
	}
	return events.MustNew(d.ID, events.TypeCompleted, events.DraftCompletedPayload{
		CompletedAt: now,
		Duration:    duration.Round(time.Second).String(),
		TotalPicks:  d.TotalPicks(),
		Statistics:  d.Statistics,
	}, now)
}
