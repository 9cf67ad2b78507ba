package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftMode controls how picks are paced.
type DraftMode string

const (
	DraftModeLive      DraftMode = "live"
	DraftModeUntimed   DraftMode = "untimed"
	DraftModeScheduled DraftMode = "scheduled"
	DraftModeTimed     DraftMode = "timed"
)

// DraftStatus defines the status of a draft.
type DraftStatus string

const (
	DraftStatusScheduled  DraftStatus = "scheduled"
	DraftStatusInProgress DraftStatus = "in_progress"
	DraftStatusPaused     DraftStatus = "paused"
	DraftStatusCompleted  DraftStatus = "completed"
)

// DraftFormat decides the order of teams within a round.
type DraftFormat string

const (
	DraftFormatSerpentine DraftFormat = "serpentine"
	DraftFormatStraight   DraftFormat = "straight"
)

// Valid reports whether f is a known format.
func (f DraftFormat) Valid() bool {
	return f == DraftFormatSerpentine || f == DraftFormatStraight
}

// OnTheClock identifies the team currently picking and its window.
type OnTheClock struct {
	TeamID       uuid.UUID `json:"team_id"`
	ClockStarted time.Time `json:"clock_started"`
	ClockExpires time.Time `json:"clock_expires"`
}

// TimeRemaining returns whole seconds left on the clock, never negative.
func (o *OnTheClock) TimeRemaining(now time.Time) int {
	if o == nil {
		return 0
	}
	d := o.ClockExpires.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// DraftStatistics accumulates pick timing and counters over a draft.
type DraftStatistics struct {
	FastestPick    *int    `json:"fastest_pick,omitempty"`
	SlowestPick    *int    `json:"slowest_pick,omitempty"`
	AveragePick    float64 `json:"average_pick"`
	TimedPickCount int     `json:"timed_pick_count"`
	AutoPickCount  int     `json:"auto_pick_count"`
	SkipCount      int     `json:"skip_count"`
	CatchUpCount   int     `json:"catch_up_count"`
}

// RecordPickDuration folds a live pick duration into the running stats.
func (s *DraftStatistics) RecordPickDuration(seconds int) {
	if s.FastestPick == nil || seconds < *s.FastestPick {
		v := seconds
		s.FastestPick = &v
	}
	if s.SlowestPick == nil || seconds > *s.SlowestPick {
		v := seconds
		s.SlowestPick = &v
	}
	total := s.AveragePick*float64(s.TimedPickCount) + float64(seconds)
	s.TimedPickCount++
	s.AveragePick = total / float64(s.TimedPickCount)
}

// Draft is the persisted state of one league draft.
type Draft struct {
	ID                 uuid.UUID          `json:"id"`
	LeagueID           uuid.UUID          `json:"league_id"`
	SeasonYear         int                `json:"season_year"`
	Mode               DraftMode          `json:"mode"`
	Status             DraftStatus        `json:"status"`
	Format             DraftFormat        `json:"format"`
	ScheduledStart     *time.Time         `json:"scheduled_start,omitempty"`
	ActualStart        *time.Time         `json:"actual_start,omitempty"`
	PausedAt           *time.Time         `json:"paused_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	CurrentRound       int                `json:"current_round"`
	CurrentPick        int                `json:"current_pick"`
	CurrentOverallPick int                `json:"current_overall_pick"`
	TotalRounds        int                `json:"total_rounds"`
	TeamCount          int                `json:"team_count"`
	PickTimer          int                `json:"pick_timer"`
	DraftOrder         []uuid.UUID        `json:"draft_order"`
	OnTheClock         *OnTheClock        `json:"on_the_clock,omitempty"`
	Configuration      DraftConfiguration `json:"configuration"`
	SkipQueue          []SkippedPick      `json:"skip_queue"`
	TimeBank           map[uuid.UUID]int  `json:"time_bank,omitempty"`
	Statistics         DraftStatistics    `json:"statistics"`
	Version            int64              `json:"version"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// TotalPicks is the number of slots in the draft.
func (d *Draft) TotalPicks() int {
	return d.TeamCount * d.TotalRounds
}

// FindSkip returns the skip with the given id, or nil.
func (d *Draft) FindSkip(id uuid.UUID) *SkippedPick {
	for i := range d.SkipQueue {
		if d.SkipQueue[i].ID == id {
			return &d.SkipQueue[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can build the next state without
// touching the one they read.
func (d *Draft) Clone() *Draft {
	c := *d
	c.DraftOrder = append([]uuid.UUID(nil), d.DraftOrder...)
	c.SkipQueue = append([]SkippedPick(nil), d.SkipQueue...)
	if d.OnTheClock != nil {
		otc := *d.OnTheClock
		c.OnTheClock = &otc
	}
	if d.TimeBank != nil {
		c.TimeBank = make(map[uuid.UUID]int, len(d.TimeBank))
		for k, v := range d.TimeBank {
			c.TimeBank[k] = v
		}
	}
	if d.Statistics.FastestPick != nil {
		v := *d.Statistics.FastestPick
		c.Statistics.FastestPick = &v
	}
	if d.Statistics.SlowestPick != nil {
		v := *d.Statistics.SlowestPick
		c.Statistics.SlowestPick = &v
	}
	c.Configuration.NotifyReminders = append([]int(nil), d.Configuration.NotifyReminders...)
	return &c
}
