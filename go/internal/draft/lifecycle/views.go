package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// GetGrid builds the round-by-round board. Made picks come from the ledger;
// open slots are filled in from the turn calculator.
func (a *App) GetGrid(ctx context.Context, draftID uuid.UUID) (*Grid, error) {
	d, err := a.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, store.Classify(err, "draft")
	}
	picks, err := a.ledger.ListPicks(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	teams, err := a.teams.ListTeamsByLeague(ctx, d.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	slots, err := turn.Schedule(d.TotalRounds, d.DraftOrder, d.Format)
	if err != nil {
		return nil, err
	}

	byOverall := make(map[int]*models.DraftPick, len(picks))
	perRound := make(map[int]int, d.TotalRounds)
	for i := range picks {
		byOverall[picks[i].OverallPick] = &picks[i]
		perRound[picks[i].Round]++
	}
	skips := make(map[int]*models.SkippedPick, len(d.SkipQueue))
	for i := range d.SkipQueue {
		skips[d.SkipQueue[i].OverallPick] = &d.SkipQueue[i]
	}

	grid := &Grid{
		DraftID:            d.ID,
		LeagueID:           d.LeagueID,
		SeasonYear:         d.SeasonYear,
		Format:             d.Format,
		Status:             d.Status,
		TotalRounds:        d.TotalRounds,
		TeamCount:          d.TeamCount,
		CurrentRound:       d.CurrentRound,
		CurrentPick:        d.CurrentPick,
		CurrentOverallPick: d.CurrentOverallPick,
		OnTheClock:         d.OnTheClock,
		Teams:              make([]GridTeam, 0, len(teams)),
		Rounds:             make([]GridRound, 0, d.TotalRounds),
		SkipQueue:          d.SkipQueue,
		LastUpdated:        d.UpdatedAt,
	}
	if grid.SkipQueue == nil {
		grid.SkipQueue = []models.SkippedPick{}
	}
	for _, t := range teams {
		grid.Teams = append(grid.Teams, GridTeam{
			TeamID:        t.ID,
			Name:          t.Name,
			Abbreviation:  t.Abbreviation,
			DraftPosition: t.DraftPosition,
		})
	}

	for round := 1; round <= d.TotalRounds; round++ {
		gr := GridRound{Round: round, Status: RoundPending}
		switch {
		case perRound[round] == d.TeamCount:
			gr.Status = RoundCompleted
		case round == d.CurrentRound:
			gr.Status = RoundInProgress
		}
		grid.Rounds = append(grid.Rounds, gr)
	}
	for _, slot := range slots {
		cell := GridCell{
			OverallPick: slot.OverallPick,
			PickInRound: slot.PickInRound,
			TeamID:      slot.TeamID,
			Skip:        skips[slot.OverallPick],
		}
		if p, ok := byOverall[slot.OverallPick]; ok {
			cell.Pick = p
			cell.TeamID = p.TeamID
		}
		r := &grid.Rounds[slot.Round-1]
		r.Cells = append(r.Cells, cell)
	}
	return grid, nil
}

// ListAvailablePlayers returns undrafted players, optionally filtered by
// position.
func (a *App) ListAvailablePlayers(ctx context.Context, req AvailablePlayersRequest) (*AvailablePlayers, error) {
	limit := req.Limit
	switch {
	case limit < 0:
		return nil, drafterr.Validation("limit must not be negative")
	case limit == 0:
		limit = DefaultAvailableLimit
	case limit > MaxAvailableLimit:
		limit = MaxAvailableLimit
	}

	if _, err := a.drafts.GetDraft(ctx, req.DraftID); err != nil {
		return nil, store.Classify(err, "draft")
	}
	picks, err := a.ledger.ListPicks(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	drafted := make([]uuid.UUID, len(picks))
	for i, p := range picks {
		drafted[i] = p.PlayerID
	}

	pool, err := a.players.ListPlayers(ctx, store.PlayerFilter{
		Position: strings.TrimSpace(req.Position),
		Exclude:  drafted,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	items := pool
	if len(items) > limit {
		items = items[:limit]
	}
	if items == nil {
		items = []*models.Player{}
	}
	return &AvailablePlayers{
		Items:        items,
		Count:        len(pool),
		DraftedCount: len(picks),
	}, nil
}
