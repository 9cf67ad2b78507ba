package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatsKind tags which stat line a player carries.
type StatsKind string

const (
	StatsKindBatting  StatsKind = "batting"
	StatsKindPitching StatsKind = "pitching"
)

type BattingStats struct {
	Games       int     `json:"games"`
	AtBats      int     `json:"at_bats"`
	Runs        int     `json:"runs"`
	Hits        int     `json:"hits"`
	HomeRuns    int     `json:"home_runs"`
	RBI         int     `json:"rbi"`
	StolenBases int     `json:"stolen_bases"`
	Walks       int     `json:"walks"`
	Strikeouts  int     `json:"strikeouts"`
	Average     float64 `json:"average"`
	OnBasePct   float64 `json:"on_base_pct"`
	SluggingPct float64 `json:"slugging_pct"`
}

type PitchingStats struct {
	Games          int     `json:"games"`
	GamesStarted   int     `json:"games_started"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	Saves          int     `json:"saves"`
	InningsPitched float64 `json:"innings_pitched"`
	Strikeouts     int     `json:"strikeouts"`
	Walks          int     `json:"walks"`
	ERA            float64 `json:"era"`
	WHIP           float64 `json:"whip"`
}

// PlayerStats is a tagged variant: exactly one of Batting or Pitching is set,
// matching Kind.
type PlayerStats struct {
	Kind     StatsKind      `json:"kind"`
	Batting  *BattingStats  `json:"batting,omitempty"`
	Pitching *PitchingStats `json:"pitching,omitempty"`
}

// Validate checks that the populated line matches the tag.
func (s PlayerStats) Validate() error {
	switch s.Kind {
	case "":
		if s.Batting != nil || s.Pitching != nil {
			return fmt.Errorf("stats line present without kind")
		}
		return nil
	case StatsKindBatting:
		if s.Batting == nil || s.Pitching != nil {
			return fmt.Errorf("batting stats must carry only a batting line")
		}
	case StatsKindPitching:
		if s.Pitching == nil || s.Batting != nil {
			return fmt.Errorf("pitching stats must carry only a pitching line")
		}
	default:
		return fmt.Errorf("unknown stats kind %q", s.Kind)
	}
	return nil
}

// UnmarshalJSON rejects payloads whose line does not match the tag.
func (s *PlayerStats) UnmarshalJSON(data []byte) error {
	type raw PlayerStats
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	out := PlayerStats(r)
	if err := out.Validate(); err != nil {
		return err
	}
	*s = out
	return nil
}

// Player represents an MLB player in the draft pool
type Player struct {
	ID              uuid.UUID   `json:"id"`
	ExternalID      string      `json:"external_id"`
	FullName        string      `json:"full_name"`
	PrimaryPosition string      `json:"primary_position"`
	MLBTeam         string      `json:"mlb_team"`
	Active          bool        `json:"active"`
	Stats           PlayerStats `json:"stats"`
	CreatedAt       time.Time   `json:"created_at"`
}

// IsPitcher reports whether the player's primary position is on the mound.
func (p *Player) IsPitcher() bool {
	switch p.PrimaryPosition {
	case "P", "SP", "RP":
		return true
	}
	return false
}
