package main

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/focuspulse/focuspulse-go"
	"github.com/google/uuid"
)

// SessionRegistry owns every session record. All reads and writes go
// through the mutex and hold it for their full duration; callers get
// copies, never pointers into the map. Network I/O never happens under
// this lock.
type SessionRegistry struct {
	mu   sync.Mutex
	byID map[string]*focuspulse.SessionRecord
	// order tracks insertion order; LatestRunningForUser scans it in
	// reverse so the most-recently-created running session wins.
	order []string

	now func() time.Time
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		byID: make(map[string]*focuspulse.SessionRecord),
		now:  time.Now,
	}
}

func (r *SessionRegistry) Create(userID, channelID string, durationMin, breakMin int) (focuspulse.SessionRecord, error) {
	if userID == "" || channelID == "" {
		return focuspulse.SessionRecord{}, focuspulse.Invalid("user_id and channel_id required")
	}
	if durationMin < 0 || breakMin < 0 {
		return focuspulse.SessionRecord{}, focuspulse.Invalid("duration and break must not be negative")
	}

	now := r.now()
	rec := focuspulse.SessionRecord{
		SessionID:       uuid.NewString(),
		UserID:          userID,
		ChannelID:       channelID,
		StartTime:       now,
		PlannedEndTime:  now.Add(time.Duration(durationMin) * time.Minute),
		DurationMinutes: durationMin,
		BreakMinutes:    breakMin,
		Status:          focuspulse.SessionRunning,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[rec.SessionID] = &rec
	r.order = append(r.order, rec.SessionID)
	return rec, nil
}

func (r *SessionRegistry) Get(sessionID string) (focuspulse.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return focuspulse.SessionRecord{}, focuspulse.ErrNotFound
	}
	return *s, nil
}

// SetStatus mutates a session's status, stamping CompletedAt on the
// transition into completed. A vanished session is not an error: an
// orphaned timer firing for a missing record is simply ignored.
func (r *SessionRegistry) SetStatus(sessionID string, status focuspulse.SessionStatus) (focuspulse.SessionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		log.Debug("set status on missing session", "sessionID", sessionID, "status", status)
		return focuspulse.SessionRecord{}, false
	}
	s.Status = status
	if status == focuspulse.SessionCompleted {
		now := r.now()
		s.CompletedAt = &now
	}
	return *s, true
}

// CompareAndSetStatus transitions only when the current status equals from.
// This is the guard deferred timer callbacks rely on instead of
// cancellation: a timer that fires after a stop finds the status changed
// and backs off.
func (r *SessionRegistry) CompareAndSetStatus(sessionID string, from, to focuspulse.SessionStatus) (focuspulse.SessionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok || s.Status != from {
		return focuspulse.SessionRecord{}, false
	}
	s.Status = to
	if to == focuspulse.SessionCompleted {
		now := r.now()
		s.CompletedAt = &now
	}
	return *s, true
}

// LatestRunningForUser returns the most-recently-created running session
// for the user.
func (r *SessionRegistry) LatestRunningForUser(userID string) (focuspulse.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		s := r.byID[r.order[i]]
		if s.UserID == userID && s.Status == focuspulse.SessionRunning {
			return *s, nil
		}
	}
	return focuspulse.SessionRecord{}, focuspulse.ErrNotFound
}

// ListForUser returns the user's sessions in insertion order. The result is
// never nil so it serializes as an empty JSON array.
func (r *SessionRegistry) ListForUser(userID string) []focuspulse.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]focuspulse.SessionRecord, 0)
	for _, id := range r.order {
		if s := r.byID[id]; s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out
}

// ListCompletedForUser returns sessions counting toward the daily digest.
// A session whose focus segment finished but whose break has not yet
// elapsed (focus_completed) counts as completed here.
func (r *SessionRegistry) ListCompletedForUser(userID string) []focuspulse.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]focuspulse.SessionRecord, 0)
	for _, id := range r.order {
		s := r.byID[id]
		if s.UserID != userID {
			continue
		}
		if s.Status == focuspulse.SessionCompleted || s.Status == focuspulse.SessionFocusCompleted {
			out = append(out, *s)
		}
	}
	return out
}

func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}
