package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/draft/turn"
	"github.com/mcdev12/bbdraft/go/internal/models"
	"github.com/rs/zerolog/log"
)

// StartDraft puts the first slot on the clock.
func (a *App) StartDraft(ctx context.Context, req ControlRequest) (*models.Draft, error) {
	var out *models.Draft
	err := a.update(ctx, req.DraftID, req.UserID, func(d *models.Draft) error {
		if d.Status != models.DraftStatusScheduled {
			return drafterr.InvalidState("draft is not in scheduled status")
		}

		now := a.clock.Now()
		next := d.Clone()
		next.Status = models.DraftStatusInProgress
		next.ActualStart = &now
		next.CurrentOverallPick = 1
		if err := turn.OpenClock(next, now); err != nil {
			return err
		}

		err := a.drafts.Apply(ctx, store.Mutation{
			Draft:        next,
			LeagueStatus: models.LeagueStatusDrafting,
			Events: []events.Envelope{
				events.MustNew(d.ID, events.TypeDraftStarted, events.DraftStartedPayload{
					StartedAt:   now,
					TotalRounds: next.TotalRounds,
					TotalPicks:  next.TotalPicks(),
					DraftOrder:  next.DraftOrder,
					OnTheClock:  next.OnTheClock,
				}, now),
			},
		})
		if err != nil {
			return store.Classify(err, "draft")
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("draft_id", out.ID.String()).Int("total_picks", out.TotalPicks()).Msg("draft started")
	return out, nil
}

// PauseDraft stops the clock. The on-the-clock team keeps its slot.
func (a *App) PauseDraft(ctx context.Context, req ControlRequest) (*models.Draft, error) {
	var out *models.Draft
	err := a.update(ctx, req.DraftID, req.UserID, func(d *models.Draft) error {
		if d.Status != models.DraftStatusInProgress {
			return drafterr.InvalidState("draft is not in progress")
		}
		if !d.Configuration.PauseEnabled {
			return drafterr.InvalidState("pausing is disabled for this draft")
		}

		now := a.clock.Now()
		next := d.Clone()
		next.Status = models.DraftStatusPaused
		next.PausedAt = &now

		err := a.drafts.Apply(ctx, store.Mutation{
			Draft: next,
			Events: []events.Envelope{
				events.MustNew(d.ID, events.TypeDraftPaused, events.DraftPausedPayload{
					PausedAt: now,
					PausedBy: req.UserID,
					Reason:   req.Reason,
				}, now),
			},
		})
		if err != nil {
			return store.Classify(err, "draft")
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("draft_id", out.ID.String()).Str("paused_by", req.UserID.String()).Msg("draft paused")
	return out, nil
}

// ResumeDraft restarts the clock with a full pick timer for the team whose
// turn it is.
func (a *App) ResumeDraft(ctx context.Context, req ControlRequest) (*models.Draft, error) {
	var out *models.Draft
	err := a.update(ctx, req.DraftID, req.UserID, func(d *models.Draft) error {
		next, err := a.resume(ctx, d)
		out = next
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AutoResume resumes every paused draft whose pause has outlasted its
// configured maximum. A zero maximum disables the limit. It returns the
// drafts it resumed.
func (a *App) AutoResume(ctx context.Context) ([]uuid.UUID, error) {
	paused, err := a.drafts.ListDraftsByStatus(ctx, models.DraftStatusPaused)
	if err != nil {
		return nil, fmt.Errorf("failed to list paused drafts: %w", err)
	}

	now := a.clock.Now()
	var resumed []uuid.UUID
	for _, d := range paused {
		if !pauseExpired(d, now) {
			continue
		}
		var done bool
		err := a.mutate(ctx, d.ID, func(cur *models.Draft) error {
			if !pauseExpired(cur, a.clock.Now()) {
				return nil
			}
			_, err := a.resume(ctx, cur)
			done = err == nil
			return err
		})
		if err != nil {
			log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to auto-resume draft")
			continue
		}
		if done {
			resumed = append(resumed, d.ID)
		}
	}
	return resumed, nil
}

func (a *App) resume(ctx context.Context, d *models.Draft) (*models.Draft, error) {
	if d.Status != models.DraftStatusPaused {
		return nil, drafterr.InvalidState("draft is not paused")
	}

	now := a.clock.Now()
	next := d.Clone()
	next.Status = models.DraftStatusInProgress
	next.PausedAt = nil
	if err := turn.OpenClock(next, now); err != nil {
		return nil, err
	}

	err := a.drafts.Apply(ctx, store.Mutation{
		Draft: next,
		Events: []events.Envelope{
			events.MustNew(d.ID, events.TypeDraftResumed, events.DraftResumedPayload{
				ResumedAt:  now,
				OnTheClock: next.OnTheClock,
			}, now),
		},
	})
	if err != nil {
		return nil, store.Classify(err, "draft")
	}

	log.Info().Str("draft_id", d.ID.String()).Int("overall_pick", next.CurrentOverallPick).Msg("draft resumed")
	return next, nil
}

func pauseExpired(d *models.Draft, now time.Time) bool {
	if d.Status != models.DraftStatusPaused || d.PausedAt == nil || d.Configuration.MaxPauseDuration <= 0 {
		return false
	}
	limit := time.Duration(d.Configuration.MaxPauseDuration) * time.Second
	return !now.Before(d.PausedAt.Add(limit))
}
