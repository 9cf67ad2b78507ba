// Package lifecycle owns draft creation and the commissioner controls
// around the pick loop: start, pause, resume, lottery and configuration,
// plus the read views of a draft.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

const maxCommitAttempts = 3

// App handles draft lifecycle business logic
type App struct {
	drafts   store.DraftStore
	ledger   store.PickLedger
	teams    store.TeamStore
	players  store.PlayerDirectory
	leagues  store.LeagueStore
	clock    clockwork.Clock
	rng      turn.Rand
	defaults models.DraftConfiguration
}

type Deps struct {
	Drafts  store.DraftStore
	Ledger  store.PickLedger
	Teams   store.TeamStore
	Players store.PlayerDirectory
	Leagues store.LeagueStore
	Clock   clockwork.Clock
	// Rand drives draft-order shuffles. Defaults to the math/rand/v2
	// global source.
	Rand turn.Rand
	// Defaults is the configuration new drafts start from. The zero value
	// means models.DefaultDraftConfiguration.
	Defaults *models.DraftConfiguration
}

// NewApp creates a new lifecycle App
func NewApp(deps Deps) *App {
	a := &App{
		drafts:   deps.Drafts,
		ledger:   deps.Ledger,
		teams:    deps.Teams,
		players:  deps.Players,
		leagues:  deps.Leagues,
		clock:    deps.Clock,
		rng:      deps.Rand,
		defaults: models.DefaultDraftConfiguration(),
	}
	if a.clock == nil {
		a.clock = clockwork.NewRealClock()
	}
	if a.rng == nil {
		a.rng = globalRand{}
	}
	if deps.Defaults != nil {
		a.defaults = *deps.Defaults
	}
	return a
}

// globalRand draws from the goroutine-safe top-level math/rand/v2 source.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// CreateDraft schedules a draft for the league with a random initial order.
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	mode := req.Mode
	switch mode {
	case "":
		mode = models.DraftModeLive
	case models.DraftModeLive, models.DraftModeUntimed, models.DraftModeScheduled, models.DraftModeTimed:
	default:
		return nil, drafterr.Validation(fmt.Sprintf("unknown draft mode %q", req.Mode))
	}

	league, err := a.leagues.GetLeague(ctx, req.LeagueID)
	if err != nil {
		return nil, store.Classify(err, "league")
	}
	if league.CommissionerID != req.UserID {
		return nil, drafterr.Unauthorized("only the commissioner can create the draft")
	}
	if !league.Settings.DraftFormat.Valid() {
		return nil, drafterr.Validation(fmt.Sprintf("league has unknown draft format %q", league.Settings.DraftFormat))
	}
	if league.Settings.Rounds < 1 {
		return nil, drafterr.Validation("league must have at least one round")
	}
	if league.Settings.PickTimer < 1 {
		return nil, drafterr.Validation("league pick timer must be positive")
	}

	if _, err := a.drafts.GetDraftByLeague(ctx, league.ID); err == nil {
		return nil, drafterr.InvalidState("draft already exists for this league")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing draft: %w", err)
	}

	teams, err := a.teams.ListTeamsByLeague(ctx, league.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if len(teams) < turn.MinTeams {
		return nil, drafterr.Validation(fmt.Sprintf("need at least %d teams to create a draft", turn.MinTeams))
	}

	order := turn.RandomOrder(teamIDs(teams), a.rng)

	cfg := a.defaults
	cfg.NotifyReminders = append([]int(nil), a.defaults.NotifyReminders...)
	if req.Configuration != nil {
		cfg = req.Configuration.Apply(cfg)
	}

	now := a.clock.Now()
	d := &models.Draft{
		ID:                 uuid.New(),
		LeagueID:           league.ID,
		SeasonYear:         league.Season,
		Mode:               mode,
		Status:             models.DraftStatusScheduled,
		Format:             league.Settings.DraftFormat,
		ScheduledStart:     req.ScheduledStart,
		CurrentRound:       1,
		CurrentPick:        1,
		CurrentOverallPick: 1,
		TotalRounds:        league.Settings.Rounds,
		TeamCount:          len(teams),
		PickTimer:          league.Settings.PickTimer,
		DraftOrder:         order,
		Configuration:      cfg,
		SkipQueue:          []models.SkippedPick{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	// the bank is kept for timed drafts but nothing draws on it yet
	if mode == models.DraftModeTimed {
		d.TimeBank = make(map[uuid.UUID]int, len(order))
		for _, id := range order {
			d.TimeBank[id] = 0
		}
	}

	err = a.drafts.Apply(ctx, store.Mutation{
		Draft:         d,
		Create:        true,
		TeamPositions: positions(order),
	})
	if err != nil {
		return nil, store.Classify(err, "draft")
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("league_id", league.ID.String()).
		Str("mode", string(mode)).
		Int("teams", len(teams)).
		Msg("draft created")
	return d, nil
}

// GetDraft returns the draft and its ledger.
func (a *App) GetDraft(ctx context.Context, draftID uuid.UUID) (*DraftView, error) {
	d, err := a.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, store.Classify(err, "draft")
	}
	picks, err := a.ledger.ListPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return &DraftView{Draft: d, Picks: nonNilPicks(picks)}, nil
}

// ListPicks returns the ledger in overall-pick order.
func (a *App) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	if _, err := a.drafts.GetDraft(ctx, draftID); err != nil {
		return nil, store.Classify(err, "draft")
	}
	picks, err := a.ledger.ListPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return nonNilPicks(picks), nil
}

// update runs fn for the league commissioner only.
func (a *App) update(ctx context.Context, draftID, userID uuid.UUID, fn func(d *models.Draft) error) error {
	return a.mutate(ctx, draftID, func(d *models.Draft) error {
		if err := a.requireCommissioner(ctx, d, userID); err != nil {
			return err
		}
		return fn(d)
	})
}

// mutate loads the draft and runs fn, reloading and running again when the
// commit lost a version race.
func (a *App) mutate(ctx context.Context, draftID uuid.UUID, fn func(d *models.Draft) error) error {
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
		log.Debug().Str("draft_id", draftID.String()).Int("attempt", attempt).Msg("draft version conflict, retrying")
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

func teamIDs(teams []*models.FantasyTeam) []uuid.UUID {
	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	return ids
}

func positions(order []uuid.UUID) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(order))
	for i, id := range order {
		out[id] = i + 1
	}
	return out
}

func nonNilPicks(picks []models.DraftPick) []models.DraftPick {
	if picks == nil {
		return []models.DraftPick{}
	}
	return picks
}
