package lifecycle

import (
	"context"
	"fmt"

	"github.com/mcdev12/bbdraft/go/internal/draft/drafterr"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store"
	"github.com/mcdev12/bbdraft/go/internal/models"
)

// UpdateConfiguration merges a patch into a draft that has not started.
func (a *App) UpdateConfiguration(ctx context.Context, req ConfigurationRequest) (*models.Draft, error) {
	var out *models.Draft
	err := a.update(ctx, req.DraftID, req.UserID, func(d *models.Draft) error {
		if d.Status != models.DraftStatusScheduled {
			return drafterr.InvalidState("cannot update configuration after the draft starts")
		}

		next := d.Clone()
		next.Configuration = req.Patch.Apply(next.Configuration)
		if err := ValidateConfiguration(next.Configuration); err != nil {
			return err
		}

		now := a.clock.Now()
		err := a.drafts.Apply(ctx, store.Mutation{
			Draft: next,
			Events: []events.Envelope{
				events.MustNew(d.ID, events.TypeConfigUpdated, events.ConfigUpdatedPayload{
					Configuration: next.Configuration,
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
	return out, nil
}

// ValidateConfiguration rejects unknown enum values and negative durations.
func ValidateConfiguration(c models.DraftConfiguration) error {
	if c.AutoPickStrategy != models.AutoPickStrategyQueue {
		return drafterr.Validation(fmt.Sprintf("unknown auto-pick strategy %q", c.AutoPickStrategy))
	}
	switch c.ClockBehavior {
	case models.ClockBehaviorReset, models.ClockBehaviorContinuous:
	default:
		return drafterr.Validation(fmt.Sprintf("unknown clock behavior %q", c.ClockBehavior))
	}
	switch c.CatchUpPolicy {
	case models.CatchUpPolicyImmediate, models.CatchUpPolicyEndOfRound:
	default:
		return drafterr.Validation(fmt.Sprintf("unknown catch-up policy %q", c.CatchUpPolicy))
	}

	nonNegative := map[string]int{
		"max_pause_duration":   c.MaxPauseDuration,
		"break_between_rounds": c.BreakBetweenRounds,
		"max_queue_depth":      c.MaxQueueDepth,
		"window_duration":      c.WindowDuration,
		"catch_up_window":      c.CatchUpWindow,
		"skip_threshold":       c.SkipThreshold,
		"catch_up_time_limit":  c.CatchUpTimeLimit,
		"bonus_time":           c.BonusTime,
	}
	for name, v := range nonNegative {
		if v < 0 {
			return drafterr.Validation(name + " must not be negative")
		}
	}
	return nil
}
