package lifecycle

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

const (
	// DefaultAvailableLimit is used when a listing asks for no limit.
	DefaultAvailableLimit = 100
	// MaxAvailableLimit caps a single available-players page.
	MaxAvailableLimit = 500
)

// LotteryMethod picks how RunLottery orders the teams.
type LotteryMethod string

const (
	LotteryRandom   LotteryMethod = "random"
	LotteryWeighted LotteryMethod = "weighted"
)

// CreateDraftRequest schedules a draft for a league.
type CreateDraftRequest struct {
	LeagueID       uuid.UUID                  `json:"league_id"`
	UserID         uuid.UUID                  `json:"-"`
	Mode           models.DraftMode           `json:"mode"`
	ScheduledStart *time.Time                 `json:"scheduled_start,omitempty"`
	Configuration  *models.ConfigurationPatch `json:"configuration,omitempty"`
}

// DraftView is a draft together with its ledger.
type DraftView struct {
	Draft *models.Draft      `json:"draft"`
	Picks []models.DraftPick `json:"picks"`
}

// ControlRequest carries a commissioner action on a draft.
type ControlRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	UserID  uuid.UUID `json:"-"`
	Reason  string    `json:"reason,omitempty"`
}

// LotteryRequest reorders a scheduled draft. Weights are per position in
// the current team listing; nil uses the default ramp.
type LotteryRequest struct {
	DraftID uuid.UUID     `json:"draft_id"`
	UserID  uuid.UUID     `json:"-"`
	Method  LotteryMethod `json:"method"`
	Weights []float64     `json:"weights,omitempty"`
}

type LotteryResult struct {
	DraftOrder []uuid.UUID `json:"draft_order"`
}

// ConfigurationRequest patches a scheduled draft's configuration.
type ConfigurationRequest struct {
	DraftID uuid.UUID                 `json:"draft_id"`
	UserID  uuid.UUID                 `json:"-"`
	Patch   models.ConfigurationPatch `json:"configuration"`
}

// AvailablePlayersRequest filters the undrafted pool.
type AvailablePlayersRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	Position string    `json:"position,omitempty"`
	Limit    int       `json:"limit,omitempty"`
}

// AvailablePlayers is one page of the undrafted pool. Count is the size of
// the whole filtered pool.
type AvailablePlayers struct {
	Items        []*models.Player `json:"items"`
	Count        int              `json:"count"`
	DraftedCount int              `json:"drafted_count"`
}

// RoundStatus is the grid state of one round.
type RoundStatus string

const (
	RoundCompleted  RoundStatus = "completed"
	RoundInProgress RoundStatus = "in_progress"
	RoundPending    RoundStatus = "pending"
)

// GridCell is one slot of the board.
type GridCell struct {
	OverallPick int                 `json:"overall_pick"`
	PickInRound int                 `json:"pick_in_round"`
	TeamID      uuid.UUID           `json:"team_id"`
	Pick        *models.DraftPick   `json:"pick,omitempty"`
	Skip        *models.SkippedPick `json:"skip,omitempty"`
}

type GridRound struct {
	Round  int         `json:"round"`
	Status RoundStatus `json:"status"`
	Cells  []GridCell  `json:"cells"`
}

type GridTeam struct {
	TeamID        uuid.UUID `json:"team_id"`
	Name          string    `json:"name"`
	Abbreviation  string    `json:"abbreviation"`
	DraftPosition *int      `json:"draft_position,omitempty"`
}

// Grid is the board view of a draft.
type Grid struct {
	DraftID            uuid.UUID            `json:"draft_id"`
	LeagueID           uuid.UUID            `json:"league_id"`
	SeasonYear         int                  `json:"season_year"`
	Format             models.DraftFormat   `json:"format"`
	Status             models.DraftStatus   `json:"status"`
	TotalRounds        int                  `json:"total_rounds"`
	TeamCount          int                  `json:"team_count"`
	CurrentRound       int                  `json:"current_round"`
	CurrentPick        int                  `json:"current_pick"`
	CurrentOverallPick int                  `json:"current_overall_pick"`
	OnTheClock         *models.OnTheClock   `json:"on_the_clock,omitempty"`
	Teams              []GridTeam           `json:"teams"`
	Rounds             []GridRound          `json:"rounds"`
	SkipQueue          []models.SkippedPick `json:"skip_queue"`
	LastUpdated        time.Time            `json:"last_updated"`
}
