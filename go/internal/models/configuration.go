package models

// AutoPickStrategyName selects how a pick is made for a team that ran out of time.
type AutoPickStrategyName string

const (
	AutoPickStrategyQueue AutoPickStrategyName = "queue"
)

// ClockBehavior describes what happens to the clock after a pick.
type ClockBehavior string

const (
	ClockBehaviorReset      ClockBehavior = "reset"
	ClockBehaviorContinuous ClockBehavior = "continuous"
)

// CatchUpPolicy describes when a skipped team may make up its pick.
type CatchUpPolicy string

const (
	CatchUpPolicyImmediate  CatchUpPolicy = "immediate"
	CatchUpPolicyEndOfRound CatchUpPolicy = "end_of_round"
)

// DraftConfiguration holds the tunable rules of a draft. It is stored as
// JSONB next to the draft row.
type DraftConfiguration struct {
	// live
	AutoPickOnTimeout  bool                 `json:"auto_pick_on_timeout" yaml:"auto_pick_on_timeout"`
	AutoPickStrategy   AutoPickStrategyName `json:"auto_pick_strategy" yaml:"auto_pick_strategy"`
	PauseEnabled       bool                 `json:"pause_enabled" yaml:"pause_enabled"`
	MaxPauseDuration   int                  `json:"max_pause_duration" yaml:"max_pause_duration"`
	BreakBetweenRounds int                  `json:"break_between_rounds" yaml:"break_between_rounds"`

	// untimed
	NotifyOnTurn    bool  `json:"notify_on_turn" yaml:"notify_on_turn"`
	NotifyReminders []int `json:"notify_reminders,omitempty" yaml:"notify_reminders"`
	AllowQueuePicks bool  `json:"allow_queue_picks" yaml:"allow_queue_picks"`
	MaxQueueDepth   int   `json:"max_queue_depth" yaml:"max_queue_depth"`

	// scheduled
	WindowDuration    int    `json:"window_duration" yaml:"window_duration"`
	SkipOnWindowClose bool   `json:"skip_on_window_close" yaml:"skip_on_window_close"`
	CatchUpEnabled    bool   `json:"catch_up_enabled" yaml:"catch_up_enabled"`
	CatchUpWindow     int    `json:"catch_up_window" yaml:"catch_up_window"` // minutes
	Timezone          string `json:"timezone" yaml:"timezone"`

	// timed
	ClockBehavior    ClockBehavior `json:"clock_behavior" yaml:"clock_behavior"`
	SkipThreshold    int           `json:"skip_threshold" yaml:"skip_threshold"`
	CatchUpPolicy    CatchUpPolicy `json:"catch_up_policy" yaml:"catch_up_policy"`
	CatchUpTimeLimit int           `json:"catch_up_time_limit" yaml:"catch_up_time_limit"`
	BonusTime        int           `json:"bonus_time" yaml:"bonus_time"`
}

// DefaultDraftConfiguration returns the rules used when a draft is created
// without overrides.
func DefaultDraftConfiguration() DraftConfiguration {
	return DraftConfiguration{
		AutoPickOnTimeout:  true,
		AutoPickStrategy:   AutoPickStrategyQueue,
		PauseEnabled:       true,
		MaxPauseDuration:   300,
		BreakBetweenRounds: 0,

		NotifyOnTurn:    true,
		NotifyReminders: []int{3600, 21600, 86400},
		AllowQueuePicks: true,
		MaxQueueDepth:   20,

		WindowDuration:    120,
		SkipOnWindowClose: true,
		CatchUpEnabled:    true,
		CatchUpWindow:     30,
		Timezone:          "America/New_York",

		ClockBehavior:    ClockBehaviorReset,
		SkipThreshold:    3,
		CatchUpPolicy:    CatchUpPolicyImmediate,
		CatchUpTimeLimit: 60,
		BonusTime:        30,
	}
}

// ConfigurationPatch carries a partial configuration update. Nil fields are
// left untouched.
type ConfigurationPatch struct {
	AutoPickOnTimeout  *bool                 `json:"auto_pick_on_timeout,omitempty"`
	AutoPickStrategy   *AutoPickStrategyName `json:"auto_pick_strategy,omitempty"`
	PauseEnabled       *bool                 `json:"pause_enabled,omitempty"`
	MaxPauseDuration   *int                  `json:"max_pause_duration,omitempty"`
	BreakBetweenRounds *int                  `json:"break_between_rounds,omitempty"`
	NotifyOnTurn       *bool                 `json:"notify_on_turn,omitempty"`
	NotifyReminders    []int                 `json:"notify_reminders,omitempty"`
	AllowQueuePicks    *bool                 `json:"allow_queue_picks,omitempty"`
	MaxQueueDepth      *int                  `json:"max_queue_depth,omitempty"`
	WindowDuration     *int                  `json:"window_duration,omitempty"`
	SkipOnWindowClose  *bool                 `json:"skip_on_window_close,omitempty"`
	CatchUpEnabled     *bool                 `json:"catch_up_enabled,omitempty"`
	CatchUpWindow      *int                  `json:"catch_up_window,omitempty"`
	Timezone           *string               `json:"timezone,omitempty"`
	ClockBehavior      *ClockBehavior        `json:"clock_behavior,omitempty"`
	SkipThreshold      *int                  `json:"skip_threshold,omitempty"`
	CatchUpPolicy      *CatchUpPolicy        `json:"catch_up_policy,omitempty"`
	CatchUpTimeLimit   *int                  `json:"catch_up_time_limit,omitempty"`
	BonusTime          *int                  `json:"bonus_time,omitempty"`
}

// Apply merges the patch into c and returns the result.
func (p ConfigurationPatch) Apply(c DraftConfiguration) DraftConfiguration {
	if p.AutoPickOnTimeout != nil {
		c.AutoPickOnTimeout = *p.AutoPickOnTimeout
	}
	if p.AutoPickStrategy != nil {
		c.AutoPickStrategy = *p.AutoPickStrategy
	}
	if p.PauseEnabled != nil {
		c.PauseEnabled = *p.PauseEnabled
	}
	if p.MaxPauseDuration != nil {
		c.MaxPauseDuration = *p.MaxPauseDuration
	}
	if p.BreakBetweenRounds != nil {
		c.BreakBetweenRounds = *p.BreakBetweenRounds
	}
	if p.NotifyOnTurn != nil {
		c.NotifyOnTurn = *p.NotifyOnTurn
	}
	if p.NotifyReminders != nil {
		c.NotifyReminders = append([]int(nil), p.NotifyReminders...)
	}
	if p.AllowQueuePicks != nil {
		c.AllowQueuePicks = *p.AllowQueuePicks
	}
	if p.MaxQueueDepth != nil {
		c.MaxQueueDepth = *p.MaxQueueDepth
	}
	if p.WindowDuration != nil {
		c.WindowDuration = *p.WindowDuration
	}
	if p.SkipOnWindowClose != nil {
		c.SkipOnWindowClose = *p.SkipOnWindowClose
	}
	if p.CatchUpEnabled != nil {
		c.CatchUpEnabled = *p.CatchUpEnabled
	}
	if p.CatchUpWindow != nil {
		c.CatchUpWindow = *p.CatchUpWindow
	}
	if p.Timezone != nil {
		c.Timezone = *p.Timezone
	}
	if p.ClockBehavior != nil {
		c.ClockBehavior = *p.ClockBehavior
	}
	if p.SkipThreshold != nil {
		c.SkipThreshold = *p.SkipThreshold
	}
	if p.CatchUpPolicy != nil {
		c.CatchUpPolicy = *p.CatchUpPolicy
	}
	if p.CatchUpTimeLimit != nil {
		c.CatchUpTimeLimit = *p.CatchUpTimeLimit
	}
	if p.BonusTime != nil {
		c.BonusTime = *p.BonusTime
	}
	return c
}
