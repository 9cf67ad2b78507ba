package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick is one immutable entry in a draft's pick ledger.
type DraftPick struct {
	DraftID       uuid.UUID `json:"draft_id"`
	OverallPick   int       `json:"overall_pick"` // pick number overall
	Round         int       `json:"round"`
	PickInRound   int       `json:"pick_in_round"`
	TeamID        uuid.UUID `json:"team_id"`
	PlayerID      uuid.UUID `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	Position      string    `json:"position"`
	MLBTeam       string    `json:"mlb_team"`
	PickedAt      time.Time `json:"picked_at"`
	PickDuration  int       `json:"pick_duration"` // seconds the team spent on the clock
	WasAutoPick   bool      `json:"was_auto_pick"`
	WasCatchUp    bool      `json:"was_catch_up"`
	WasFromQueue  bool      `json:"was_from_queue"`
	QueuePosition *int      `json:"queue_position,omitempty"`
}
