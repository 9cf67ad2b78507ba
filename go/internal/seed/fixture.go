// Package seed loads league, team and player fixtures for local drafts.
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/memory"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// DefaultPath is the fixture bundled with the repository.
const DefaultPath = "go/internal/assets/draft_fixture.json"

// Fixture is a self-contained draft pool: leagues, their teams and the
// players available to them.
type Fixture struct {
	Leagues []models.League      `json:"leagues"`
	Teams   []models.FantasyTeam `json:"teams"`
	Players []models.Player      `json:"players"`
}

// Load reads and validates a JSON fixture.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks ids are unique and every team points at a known league.
func (f *Fixture) Validate() error {
	leagues := make(map[uuid.UUID]bool, len(f.Leagues))
	for _, l := range f.Leagues {
		if l.ID == uuid.Nil {
			return fmt.Errorf("league %q has no id", l.Name)
		}
		if leagues[l.ID] {
			return fmt.Errorf("duplicate league %s", l.ID)
		}
		if !l.Settings.DraftFormat.Valid() {
			return fmt.Errorf("league %s has unknown draft format %q", l.ID, l.Settings.DraftFormat)
		}
		leagues[l.ID] = true
	}

	teams := make(map[uuid.UUID]bool, len(f.Teams))
	for _, t := range f.Teams {
		if teams[t.ID] || t.ID == uuid.Nil {
			return fmt.Errorf("team %q has a missing or duplicate id", t.Name)
		}
		if !leagues[t.LeagueID] {
			return fmt.Errorf("team %s references unknown league %s", t.ID, t.LeagueID)
		}
		teams[t.ID] = true
	}

	players := make(map[uuid.UUID]bool, len(f.Players))
	external := make(map[string]bool, len(f.Players))
	for _, p := range f.Players {
		if players[p.ID] || p.ID == uuid.Nil {
			return fmt.Errorf("player %q has a missing or duplicate id", p.FullName)
		}
		if external[p.ExternalID] {
			return fmt.Errorf("duplicate external id %q", p.ExternalID)
		}
		players[p.ID] = true
		external[p.ExternalID] = true
	}
	return nil
}

// Into copies the fixture into an in-memory store.
func (f *Fixture) Into(s *memory.Store) {
	for i := range f.Leagues {
		s.PutLeague(&f.Leagues[i])
	}
	for i := range f.Teams {
		s.PutTeam(&f.Teams[i])
	}
	for i := range f.Players {
		s.PutPlayer(&f.Players[i])
	}
}
