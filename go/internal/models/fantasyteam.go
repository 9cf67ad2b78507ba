package models

import (
	"time"

	"github.com/google/uuid"
)

type FantasyTeam struct {
	ID            uuid.UUID   `json:"id"`
	LeagueID      uuid.UUID   `json:"league_id"`
	OwnerID       uuid.UUID   `json:"owner_id"`
	Name          string      `json:"name"`
	Abbreviation  string      `json:"abbreviation"`
	DraftPosition *int        `json:"draft_position,omitempty"`
	DraftQueue    []uuid.UUID `json:"draft_queue"`
	Roster        []Roster    `json:"roster"`
	CreatedAt     time.Time   `json:"created_at"`
}

// HasPlayer reports whether the player is already on the roster.
func (t *FantasyTeam) HasPlayer(playerID uuid.UUID) bool {
	for _, r := range t.Roster {
		if r.PlayerID == playerID {
			return true
		}
	}
	return false
}
