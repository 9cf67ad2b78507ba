package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// Event payload types shared by the draft apps, the clock and the room hub

// NextPick describes who is on the clock after a pointer advance.
type NextPick struct {
	TeamID       uuid.UUID `json:"team_id"`
	Round        int       `json:"round"`
	PickInRound  int       `json:"pick_in_round"`
	OverallPick  int       `json:"overall_pick"`
	ClockExpires time.Time `json:"clock_expires"`
}

// NextPickOf builds a NextPick from an advanced draft, or nil once it is over.
func NextPickOf(d *models.Draft) *NextPick {
	if d.OnTheClock == nil {
		return nil
	}
	return &NextPick{
		TeamID:       d.OnTheClock.TeamID,
		Round:        d.CurrentRound,
		PickInRound:  d.CurrentPick,
		OverallPick:  d.CurrentOverallPick,
		ClockExpires: d.OnTheClock.ClockExpires,
	}
}

type PickMadePayload struct {
	Pick          models.DraftPick `json:"pick"`
	TeamName      string           `json:"team_name"`
	NextPick      *NextPick        `json:"next_pick,omitempty"`
	TimeRemaining int              `json:"time_remaining"`
}

type AutoPickPayload struct {
	Pick          models.DraftPick `json:"pick"`
	TeamName      string           `json:"team_name"`
	FromQueue     bool             `json:"from_queue"`
	NextPick      *NextPick        `json:"next_pick,omitempty"`
	TimeRemaining int              `json:"time_remaining"`
}

type SkipPayload struct {
	Skip          models.SkippedPick `json:"skip"`
	NextPick      *NextPick          `json:"next_pick,omitempty"`
	TimeRemaining int                `json:"time_remaining"`
}

type CatchUpAvailablePayload struct {
	SkipID      uuid.UUID  `json:"skip_id"`
	TeamID      uuid.UUID  `json:"team_id"`
	OverallPick int        `json:"overall_pick"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

type CatchUpMadePayload struct {
	SkipID   uuid.UUID        `json:"skip_id"`
	Pick     models.DraftPick `json:"pick"`
	TeamName string           `json:"team_name"`
}

type ClockTickPayload struct {
	OverallPick   int                `json:"overall_pick"`
	TimeRemaining int                `json:"time_remaining"`
	OnTheClock    *models.OnTheClock `json:"on_the_clock,omitempty"`
}

type DraftStartedPayload struct {
	StartedAt   time.Time          `json:"started_at"`
	TotalRounds int                `json:"total_rounds"`
	TotalPicks  int                `json:"total_picks"`
	DraftOrder  []uuid.UUID        `json:"draft_order"`
	OnTheClock  *models.OnTheClock `json:"on_the_clock,omitempty"`
}

type DraftPausedPayload struct {
	PausedAt time.Time `json:"paused_at"`
	PausedBy uuid.UUID `json:"paused_by"`
	Reason   string    `json:"reason,omitempty"`
}

type DraftResumedPayload struct {
	ResumedAt  time.Time          `json:"resumed_at"`
	OnTheClock *models.OnTheClock `json:"on_the_clock,omitempty"`
}

type DraftCompletedPayload struct {
	CompletedAt time.Time              `json:"completed_at"`
	Duration    string                 `json:"duration"`
	TotalPicks  int                    `json:"total_picks"`
	Statistics  models.DraftStatistics `json:"statistics"`
}

type OrderUpdatedPayload struct {
	DraftOrder []uuid.UUID `json:"draft_order"`
	Method     string      `json:"method"`
}

type ConfigUpdatedPayload struct {
	Configuration models.DraftConfiguration `json:"configuration"`
}

type QueueUpdatedPayload struct {
	TeamID uuid.UUID   `json:"team_id"`
	Queue  []uuid.UUID `json:"queue"`
}

type ChatMessagePayload struct {
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Member is one identity present in a draft room.
type Member struct {
	UserID uuid.UUID `json:"user_id"`
	TeamID uuid.UUID `json:"team_id"`
}

type UserConnectedPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	TeamID  uuid.UUID `json:"team_id"`
	Members []Member  `json:"members"`
}

type UserDisconnectedPayload struct {
	UserID  uuid.UUID `json:"user_id"`
	Members []Member  `json:"members"`
}

// TeamSummary is the slice of a team the room snapshot exposes.
type TeamSummary struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Abbreviation  string    `json:"abbreviation"`
	OwnerID       uuid.UUID `json:"owner_id"`
	DraftPosition *int      `json:"draft_position,omitempty"`
}

type StatePayload struct {
	Draft         *models.Draft      `json:"draft"`
	Picks         []models.DraftPick `json:"picks"`
	Teams         []TeamSummary      `json:"teams"`
	TimeRemaining int                `json:"time_remaining"`
	Members       []Member           `json:"members"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
