package models

import (
	"time"

	"github.com/google/uuid"
)

type Roster struct {
	ID              uuid.UUID       `json:"id"`
	FantasyTeamID   uuid.UUID       `json:"fantasy_team_id"`
	PlayerID        uuid.UUID       `json:"player_id"`
	Position        string          `json:"position"`
	AcquiredAt      time.Time       `json:"acquired_at"`
	AcquisitionType AcquisitionType `json:"acquisition_type"`
}

// AcquisitionType represents how a player was acquired
type AcquisitionType string

const (
	AcquisitionTypeDraft     AcquisitionType = "draft"
	AcquisitionTypeWaiver    AcquisitionType = "waiver"
	AcquisitionTypeTrade     AcquisitionType = "trade"
	AcquisitionTypeFreeAgent AcquisitionType = "free_agent"
)
