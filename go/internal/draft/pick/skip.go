package pick

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ManualSkip passes over the team on the clock. Only the league
// commissioner may do this.
func (a *App) ManualSkip(ctx context.Context, req SkipRequest) (*models.SkippedPick, error) {
	reason := req.Reason
	switch reason {
	case "":
		reason = models.SkipReasonManual
	case models.SkipReasonManual, models.SkipReasonDisconnected:
	default:
		return nil, drafterr.Validation("reason must be manual or disconnected")
	}

	var (
		skip     *models.SkippedPick
		expected int
	)
	err := a.withRetry(ctx, req.DraftID, func(d *models.Draft) error {
		if expected != 0 && d.CurrentOverallPick != expected {
			return drafterr.OutOfTurn("pick %d has already been made", expected)
		}
		expected = d.CurrentOverallPick

		if d.Status != models.DraftStatusInProgress {
			return drafterr.InvalidState("draft is not in progress")
		}
		if err := a.requireCommissioner(ctx, d, req.UserID); err != nil {
			return err
		}
		s, err := a.skipCurrent(ctx, d, reason)
		if err != nil {
			return err
		}
		skip = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return skip, nil
}

// skipCurrent records the current slot as skipped and advances the pointer.
func (a *App) skipCurrent(ctx context.Context, d *models.Draft, reason models.SkipReason) (*models.SkippedPick, error) {
	now := a.clock.Now()
	slot, err := turn.ForDraft(d)
	if err != nil {
		return nil, err
	}

	skip := models.SkippedPick{
		ID:          uuid.New(),
		DraftID:     d.ID,
		TeamID:      slot.TeamID,
		Round:       slot.Round,
		PickInRound: slot.PickInRound,
		OverallPick: slot.OverallPick,
		SkippedAt:   now,
		Reason:      reason,
	}
	if d.OnTheClock != nil {
		skip.OriginalDeadline = d.OnTheClock.ClockExpires
	} else {
		skip.OriginalDeadline = now
	}
	if d.Configuration.CatchUpEnabled {
		deadline := now.Add(time.Duration(d.Configuration.CatchUpWindow) * time.Minute)
		skip.CatchUpEligible = true
		skip.CatchUpDeadline = &deadline
		skip.CatchUpStatus = models.CatchUpStatusAvailable
	} else {
		skip.CatchUpStatus = models.CatchUpStatusForfeited
	}

	next := d.Clone()
	next.SkipQueue = append(next.SkipQueue, skip)
	next.Statistics.SkipCount++
	completed, err := turn.Advance(next, now)
	if err != nil {
		return nil, err
	}
	// completion forfeits open skips, including this one
	recorded := *next.FindSkip(skip.ID)

	evts := []events.Envelope{
		events.MustNew(d.ID, events.TypeSkip, events.SkipPayload{
			Skip:          recorded,
			NextPick:      events.NextPickOf(next),
			TimeRemaining: next.OnTheClock.TimeRemaining(now),
		}, now),
	}
	if recorded.CatchUpStatus == models.CatchUpStatusAvailable {
		evts = append(evts, events.MustNew(d.ID, events.TypeCatchUpAvailable, events.CatchUpAvailablePayload{
			SkipID:      recorded.ID,
			TeamID:      recorded.TeamID,
			OverallPick: recorded.OverallPick,
			Deadline:    recorded.CatchUpDeadline,
		}, now))
	}

	m := store.Mutation{Draft: next}
	if completed {
		m.LeagueStatus = models.LeagueStatusInSeason
		evts = append(evts, completedEvent(next, now))
	}
	m.Events = evts

	if err := a.drafts.Apply(ctx, m); err != nil {
		return nil, store.Classify(err, "draft")
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Str("team_id", slot.TeamID.String()).
		Int("overall_pick", slot.OverallPick).
		Str("reason", string(reason)).
		Msg("pick skipped")
	return &recorded, nil
}

// ListSkips returns the draft's skip queue and the subset still open for
// catch-up.
func (a *App) ListSkips(ctx context.Context, draftID uuid.UUID) (*SkipsView, error) {
	d, err := a.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, store.Classify(err, "draft")
	}
	now := a.clock.Now()
	view := &SkipsView{
		Skips:            append([]models.SkippedPick{}, d.SkipQueue...),
		CatchUpAvailable: []models.SkippedPick{},
	}
	for _, s := range d.SkipQueue {
		if s.CatchUpOpen(now) {
			view.CatchUpAvailable = append(view.CatchUpAvailable, s)
		}
	}
	return view, nil
}

// ForfeitExpiredSkips marks every available skip whose catch-up deadline has
// passed as forfeited. It returns how many were changed.
func (a *App) ForfeitExpiredSkips(ctx context.Context, draftID uuid.UUID) (int, error) {
	var forfeited int
	err := a.withRetry(ctx, draftID, func(d *models.Draft) error {
		now := a.clock.Now()
		next := d.Clone()
		forfeited = 0
		for i := range next.SkipQueue {
			s := &next.SkipQueue[i]
			if s.CatchUpStatus == models.CatchUpStatusAvailable && s.CatchUpDeadline != nil && !now.Before(*s.CatchUpDeadline) {
				s.CatchUpStatus = models.CatchUpStatusForfeited
				forfeited++
			}
		}
		if forfeited == 0 {
			return nil
		}
		return store.Classify(a.drafts.Apply(ctx, store.Mutation{Draft: next}), "draft")
	})
	if err != nil {
		return 0, err
	}
	if forfeited > 0 {
		log.Info().Str("draft_id", draftID.String()).Int("count", forfeited).Msg("forfeited expired catch-up picks")
	}
	return forfeited, nil
}
