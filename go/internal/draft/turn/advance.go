package turn

import (
	"time"

	"github.com/mcdev12/bbdraft/go/internal/models"
)

// OpenClock puts the team owning the current pointer on the clock with a
// full pick timer starting at now.
func OpenClock(d *models.Draft, now time.Time) error {
	slot, err := ForDraft(d)
	if err != nil {
		return err
	}
	d.CurrentRound = slot.Round
	d.CurrentPick = slot.PickInRound
	d.OnTheClock = &models.OnTheClock{
		TeamID:       slot.TeamID,
		ClockStarted: now,
		ClockExpires: now.Add(time.Duration(d.PickTimer) * time.Second),
	}
	return nil
}

// Advance moves the pointer past the current slot. When the last slot has
// been consumed the draft is completed, the clock is cleared and every skip
// still open for catch-up is forfeited. It reports whether that happened.
func Advance(d *models.Draft, now time.Time) (bool, error) {
	d.CurrentOverallPick++
	if d.CurrentOverallPick > d.TotalPicks() {
		d.Status = models.DraftStatusCompleted
		d.OnTheClock = nil
		completedAt := now
		d.CompletedAt = &completedAt
		for i := range d.SkipQueue {
			if d.SkipQueue[i].CatchUpStatus == models.CatchUpStatusAvailable {
				d.SkipQueue[i].CatchUpStatus = models.CatchUpStatusForfeited
			}
		}
		return true, nil
	}
	return false, OpenClock(d, now)
}
