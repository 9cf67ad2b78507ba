package models

import (
	"time"

	"github.com/google/uuid"
)

type LeagueStatus string

const (
	LeagueStatusSetup    LeagueStatus = "setup"
	LeagueStatusDrafting LeagueStatus = "drafting"
	LeagueStatusInSeason LeagueStatus = "in_season"
	LeagueStatusComplete LeagueStatus = "complete"
)

// LeagueSettings holds the parts of a league's settings the draft reads.
type LeagueSettings struct {
	DraftFormat DraftFormat `json:"draft_format"`
	Rounds      int         `json:"rounds"`
	PickTimer   int         `json:"pick_timer"` // seconds
}

// League represents a fantasy baseball league
type League struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	CommissionerID uuid.UUID      `json:"commissioner_id"`
	Settings       LeagueSettings `json:"settings"`
	Status         LeagueStatus   `json:"status"`
	Season         int            `json:"season"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
