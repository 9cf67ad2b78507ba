// Package store declares the persistence collaborators the draft core
// depends on. Implementations live in store/postgres, store/memory and the
// gorm-backed fantasyteam, player and leagues packages.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict means the draft changed since it was read.
	ErrVersionConflict = errors.New("draft version conflict")
	// ErrPlayerDrafted means the ledger already holds the player.
	ErrPlayerDrafted = errors.New("player already drafted")
	// ErrSlotFilled means the ledger already holds the overall pick.
	ErrSlotFilled = errors.New("draft slot already filled")
	// ErrDraftExists means the league already has a draft.
	ErrDraftExists = errors.New("league already has a draft")
)

// Mutation is everything one draft operation commits. It is applied
// atomically: either every part is persisted or none is.
type Mutation struct {
	// Draft is the next state. Its Version must be the version the caller
	// read; the write fails with ErrVersionConflict otherwise.
	Draft *models.Draft
	// Create inserts Draft instead of updating it.
	Create bool

	Pick          *models.DraftPick
	Roster        *models.Roster
	TeamPositions map[uuid.UUID]int
	// LeagueStatus is written to the draft's league when non-empty.
	LeagueStatus models.LeagueStatus
	Events       []events.Envelope
}

// DraftStore persists drafts and their skip queues.
type DraftStore interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	GetDraftByLeague(ctx context.Context, leagueID uuid.UUID) (*models.Draft, error)
	ListDraftsByStatus(ctx context.Context, status models.DraftStatus) ([]*models.Draft, error)
	// Apply commits m. On success m.Draft.Version is advanced.
	Apply(ctx context.Context, m Mutation) error
}

// PickLedger reads the append-only record of picks.
type PickLedger interface {
	GetPick(ctx context.Context, draftID uuid.UUID, overallPick int) (*models.DraftPick, error)
	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
	IsPlayerDrafted(ctx context.Context, draftID, playerID uuid.UUID) (bool, error)
}

// TeamStore reads fantasy teams and writes their draft queues.
type TeamStore interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.FantasyTeam, error)
	ListTeamsByLeague(ctx context.Context, leagueID uuid.UUID) ([]*models.FantasyTeam, error)
	UpdateDraftQueue(ctx context.Context, teamID uuid.UUID, queue []uuid.UUID) error
}

// PlayerFilter narrows a player listing. Results are ordered by full name,
// then id.
type PlayerFilter struct {
	Position string
	Exclude  []uuid.UUID
	Limit    int
	Offset   int
}

// PlayerDirectory looks up draftable players.
type PlayerDirectory interface {
	GetPlayer(ctx context.Context, id uuid.UUID) (*models.Player, error)
	ListPlayers(ctx context.Context, filter PlayerFilter) ([]*models.Player, error)
}

// LeagueStore reads leagues.
type LeagueStore interface {
	GetLeague(ctx context.Context, id uuid.UUID) (*models.League, error)
}

// Classify maps store sentinels onto the draft error kinds. what names the
// record for NotFound messages. ErrVersionConflict is returned unchanged so
// callers can retry on it.
func Classify(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrVersionConflict):
		return err
	case errors.Is(err, ErrNotFound):
		return drafterr.NotFound("%s not found", what)
	case errors.Is(err, ErrPlayerDrafted):
		return drafterr.AlreadyDrafted("player has already been drafted")
	case errors.Is(err, ErrSlotFilled):
		return drafterr.OutOfTurn("pick has already been made")
	case errors.Is(err, ErrDraftExists):
		return drafterr.InvalidState("draft already exists for this league")
	}
	return err
}
