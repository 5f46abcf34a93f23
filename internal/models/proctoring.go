package models

import "time"

type ProctoringEventType string

const (
	EventTabSwitch      ProctoringEventType = "tab_switch"
	EventWindowBlur     ProctoringEventType = "window_blur"
	EventFullscreenExit ProctoringEventType = "fullscreen_exit"
	EventCopyAttempt    ProctoringEventType = "copy_attempt"
	EventRightClick     ProctoringEventType = "right_click"
)

// ProctoringEvent is a single client-reported incident. Events arrive already
// ordered by the client; the aggregator preserves that order.
type ProctoringEvent struct {
	Type      ProctoringEventType `json:"type"`
	Timestamp time.Time           `json:"timestamp"`
	Details   string              `json:"details,omitempty"`
	Duration  *int                `json:"duration,omitempty"` // seconds, e.g. time spent outside the tab
}

// AntiCheatData is the per-submission proctoring snapshot persisted alongside
// the answers.
type AntiCheatData struct {
	TabSwitchCount            int               `json:"tab_switch_count"`
	FullscreenExitCount       int               `json:"fullscreen_exit_count"`
	CopyAttempts              int               `json:"copy_attempts"`
	RightClickAttempts        int               `json:"right_click_attempts"`
	SuspiciousActivities      []ProctoringEvent `json:"suspicious_activities"`
	TotalSuspiciousActivities int               `json:"total_suspicious_activities"`
	QuizDuration              int               `json:"quiz_duration"` // seconds
	FlaggedForReview          bool              `json:"flagged_for_review"`
}
