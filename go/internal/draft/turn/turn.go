// Package turn computes which team owns a draft slot. Everything here is a
// pure function of the draft order and format; results are never cached.
package turn

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// MinTeams is the smallest order a draft can run with.
const MinTeams = 2

// Slot is a single position in the draft schedule.
type Slot struct {
	TeamID      uuid.UUID `json:"team_id"`
	Round       int       `json:"round"`
	PickInRound int       `json:"pick_in_round"`
	OverallPick int       `json:"overall_pick"`
}

// ForPick returns the slot for a 1-based overall pick number.
func ForPick(overallPick int, draftOrder []uuid.UUID, format models.DraftFormat) (Slot, error) {
	teamCount := len(draftOrder)
	if overallPick < 1 {
		return Slot{}, drafterr.Validation(fmt.Sprintf("overall pick must be at least 1, got %d", overallPick))
	}
	if teamCount < MinTeams {
		return Slot{}, drafterr.Validation(fmt.Sprintf("draft order needs at least %d teams, got %d", MinTeams, teamCount))
	}
	if !format.Valid() {
		return Slot{}, drafterr.Validation(fmt.Sprintf("unknown draft format %q", format))
	}

	round := (overallPick + teamCount - 1) / teamCount
	pickInRound := ((overallPick - 1) % teamCount) + 1

	idx := pickInRound - 1
	if format == models.DraftFormatSerpentine && round%2 == 0 {
		// even rounds run backwards
		idx = teamCount - pickInRound
	}

	return Slot{
		TeamID:      draftOrder[idx],
		Round:       round,
		PickInRound: pickInRound,
		OverallPick: overallPick,
	}, nil
}

// ForDraft is ForPick applied to the draft's current pointer.
func ForDraft(d *models.Draft) (Slot, error) {
	return ForPick(d.CurrentOverallPick, d.DraftOrder, d.Format)
}

// Schedule lists every slot of a draft in overall-pick order.
func Schedule(totalRounds int, draftOrder []uuid.UUID, format models.DraftFormat) ([]Slot, error) {
	if totalRounds < 1 {
		return nil, drafterr.Validation(fmt.Sprintf("total rounds must be at least 1, got %d", totalRounds))
	}
	total := totalRounds * len(draftOrder)
	slots := make([]Slot, 0, total)
	for pick := 1; pick <= total; pick++ {
		slot, err := ForPick(pick, draftOrder, format)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}
