package models

import (
	"time"

	"github.com/google/uuid"
)

// SkipReason records why a slot was passed over.
type SkipReason string

const (
	SkipReasonTimerExpired SkipReason = "timer_expired"
	SkipReasonDisconnected SkipReason = "disconnected"
	SkipReasonManual       SkipReason = "manual"
)

// CatchUpStatus tracks a skipped slot through its make-up window.
type CatchUpStatus string

const (
	CatchUpStatusPending   CatchUpStatus = "pending"
	CatchUpStatusAvailable CatchUpStatus = "available"
	CatchUpStatusCompleted CatchUpStatus = "completed"
	CatchUpStatusForfeited CatchUpStatus = "forfeited"
)

// SkippedPick is a slot that passed without a selection. While its status is
// available the owning team may fill it out of order.
type SkippedPick struct {
	ID                 uuid.UUID     `json:"id"`
	DraftID            uuid.UUID     `json:"draft_id"`
	TeamID             uuid.UUID     `json:"team_id"`
	Round              int           `json:"round"`
	PickInRound        int           `json:"pick_in_round"`
	OverallPick        int           `json:"overall_pick"`
	SkippedAt          time.Time     `json:"skipped_at"`
	Reason             SkipReason    `json:"reason"`
	OriginalDeadline   time.Time     `json:"original_deadline"`
	CatchUpEligible    bool          `json:"catch_up_eligible"`
	CatchUpDeadline    *time.Time    `json:"catch_up_deadline,omitempty"`
	CatchUpStatus      CatchUpStatus `json:"catch_up_status"`
	CatchUpCompletedAt *time.Time    `json:"catch_up_completed_at,omitempty"`
	PlayerID           *uuid.UUID    `json:"player_id,omitempty"`
}

// CatchUpOpen reports whether the team can still use this skip at now.
func (s *SkippedPick) CatchUpOpen(now time.Time) bool {
	if s.CatchUpStatus != CatchUpStatusAvailable {
		return false
	}
	return s.CatchUpDeadline == nil || now.Before(*s.CatchUpDeadline)
}
