package focuspulse

import "time"

type SessionStatus string

const (
	SessionRunning        SessionStatus = "running"
	SessionFocusCompleted SessionStatus = "focus_completed"
	SessionCompleted      SessionStatus = "completed"
	SessionStopped        SessionStatus = "stopped"
)

// IsTerminal reports whether the status admits further transitions. There
// is no path out of completed or stopped.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionStopped
}

const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
	DefaultSummaryTime  = "21:00"
)

// SessionRecord is one focus+break cycle. SessionID, UserID, ChannelID and
// the two durations are immutable after creation; only Status and
// CompletedAt change afterwards.
type SessionRecord struct {
	SessionID       string        `json:"session_id"`
	UserID          string        `json:"user_id"`
	ChannelID       string        `json:"channel_id"`
	StartTime       time.Time     `json:"start_time"`
	PlannedEndTime  time.Time     `json:"planned_end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	BreakMinutes    int           `json:"break_minutes"`
	Status          SessionStatus `json:"status"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// DailySummaryRecord is one user's opt-in to the recurring digest.
// ScheduledTime is wall-clock HH:MM against the process clock; there is no
// per-user timezone.
type DailySummaryRecord struct {
	UserID        string `json:"user_id"`
	ChannelID     string `json:"channel_id"`
	Enabled       bool   `json:"enabled"`
	ScheduledTime string `json:"scheduled_time"`
}
