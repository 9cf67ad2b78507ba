package pick

import (
	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// PickRequest is a manual selection made by a team owner.
type PickRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// CatchUpRequest fills a previously skipped slot.
type CatchUpRequest struct {
	DraftID  uuid.UUID `json:"draft_id"`
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID uuid.UUID `json:"player_id"`
	SkipID   uuid.UUID `json:"skip_id"`
	UserID   uuid.UUID `json:"user_id"`
}

// SkipRequest is a commissioner passing over the team on the clock.
type SkipRequest struct {
	DraftID uuid.UUID         `json:"draft_id"`
	UserID  uuid.UUID         `json:"user_id"`
	Reason  models.SkipReason `json:"reason"`
}

// SkipsView lists a draft's skips and the subset still open for catch-up.
type SkipsView struct {
	Skips            []models.SkippedPick `json:"skips"`
	CatchUpAvailable []models.SkippedPick `json:"catch_up_available"`
}

// Selection is the player an auto-pick strategy settled on.
type Selection struct {
	Player        *models.Player
	FromQueue     bool
	QueuePosition *int
}

// pickOptions flags how a pick entered the ledger.
type pickOptions struct {
	auto      bool
	selection Selection
}
