package main

import (
	"regexp"
	"sync"

	"github.com/focuspulse/focuspulse-go"
)

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// DailySummaryRegistry owns the digest opt-ins, one record per user.
type DailySummaryRegistry struct {
	mu     sync.Mutex
	byUser map[string]focuspulse.DailySummaryRecord
}

func NewDailySummaryRegistry() *DailySummaryRegistry {
	return &DailySummaryRegistry{
		byUser: make(map[string]focuspulse.DailySummaryRecord),
	}
}

// Enable opts the user in at the given HH:MM, overwriting any prior record
// including its time. There is no disable operation.
func (r *DailySummaryRegistry) Enable(userID, channelID, hhmm string) (focuspulse.DailySummaryRecord, error) {
	if userID == "" || channelID == "" {
		return focuspulse.DailySummaryRecord{}, focuspulse.Invalid("user_id and channel_id required")
	}
	if !hhmmPattern.MatchString(hhmm) {
		return focuspulse.DailySummaryRecord{}, focuspulse.Invalid("time must be HH:MM")
	}

	rec := focuspulse.DailySummaryRecord{
		UserID:        userID,
		ChannelID:     channelID,
		Enabled:       true,
		ScheduledTime: hhmm,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[userID] = rec
	return rec, nil
}

// Snapshot copies every record so the digest scan can iterate without
// holding the lock while dispatching.
func (r *DailySummaryRegistry) Snapshot() []focuspulse.DailySummaryRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]focuspulse.DailySummaryRecord, 0, len(r.byUser))
	for _, rec := range r.byUser {
		out = append(out, rec)
	}
	return out
}
