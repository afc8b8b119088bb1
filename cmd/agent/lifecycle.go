package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/focuspulse/focuspulse-go"
)

// Messenger delivers a text notification to a channel. Best effort: false
// means the message was dropped, never that the caller should retry.
type Messenger interface {
	Send(ctx context.Context, channelID, text string) bool
}

// Responder turns a prompt into a short reply. It substitutes a fixed
// fallback string instead of returning an error.
type Responder interface {
	Reply(ctx context.Context, prompt string) string
}

// LifecycleController drives a session from running through its phase
// transitions by arming one-shot timers for focus end and break end.
// Timers are never cancelled; each callback re-checks status via
// CompareAndSetStatus before acting, so a stop that lands first simply
// wins and the late timer no-ops.
type LifecycleController struct {
	registry  *SessionRegistry
	messenger Messenger
	responder Responder

	// unit is how long a session "minute" lasts; tests shrink it.
	unit      time.Duration
	afterFunc func(time.Duration, func()) *time.Timer

	// parentCtx bounds dispatch goroutines, not the timers themselves;
	// pending timers die with the process and their sessions stay stuck
	// in their last status.
	parentCtx context.Context
}

func NewLifecycleController(ctx context.Context, registry *SessionRegistry, messenger Messenger, responder Responder) *LifecycleController {
	return &LifecycleController{
		registry:  registry,
		messenger: messenger,
		responder: responder,
		unit:      time.Minute,
		afterFunc: time.AfterFunc,
		parentCtx: ctx,
	}
}

// Start creates a running session and arms the focus-end timer.
func (c *LifecycleController) Start(userID, channelID string, durationMin, breakMin int) (focuspulse.SessionRecord, error) {
	rec, err := c.registry.Create(userID, channelID, durationMin, breakMin)
	if err != nil {
		return focuspulse.SessionRecord{}, err
	}

	c.notify(rec.ChannelID, fmt.Sprintf(
		"🚀 <@%s> started a %d-minute focus session. I'll remind you when it's done.",
		rec.UserID, rec.DurationMinutes))

	sessionID := rec.SessionID
	c.afterFunc(time.Duration(rec.DurationMinutes)*c.unit, func() {
		c.endFocus(sessionID)
	})
	log.Debug("scheduled focus end", "sessionID", sessionID, "minutes", rec.DurationMinutes)
	return rec, nil
}

// endFocus fires when the focus timer elapses. A session that was stopped
// or vanished in the meantime is left untouched and gets no notification.
func (c *LifecycleController) endFocus(sessionID string) {
	rec, ok := c.registry.CompareAndSetStatus(sessionID, focuspulse.SessionRunning, focuspulse.SessionFocusCompleted)
	if !ok {
		log.Debug("focus timer fired for inactive session", "sessionID", sessionID)
		return
	}

	c.notifyWithCheer(rec.ChannelID,
		fmt.Sprintf("⏰ Focus session finished for <@%s>! Time for a %d minute break.", rec.UserID, rec.BreakMinutes),
		fmt.Sprintf("Write one short encouraging sentence for someone who just finished a %d-minute focus session.", rec.DurationMinutes))

	// The break runs relative to now, not to the planned end of the
	// focus phase.
	c.afterFunc(time.Duration(rec.BreakMinutes)*c.unit, func() {
		c.endBreak(sessionID)
	})
	log.Debug("scheduled break end", "sessionID", sessionID, "minutes", rec.BreakMinutes)
}

func (c *LifecycleController) endBreak(sessionID string) {
	rec, ok := c.registry.CompareAndSetStatus(sessionID, focuspulse.SessionFocusCompleted, focuspulse.SessionCompleted)
	if !ok {
		log.Debug("break timer fired for inactive session", "sessionID", sessionID)
		return
	}

	c.notify(rec.ChannelID, fmt.Sprintf(
		"✅ Break over — ready for the next focus session, <@%s>?", rec.UserID))
}

// Stop halts a running session. The pending focus timer is left armed; its
// status guard resolves the race. Stopping a session already past running
// reports success without a second notification.
func (c *LifecycleController) Stop(sessionID string) (focuspulse.SessionRecord, error) {
	rec, ok := c.registry.CompareAndSetStatus(sessionID, focuspulse.SessionRunning, focuspulse.SessionStopped)
	if ok {
		c.notify(rec.ChannelID, fmt.Sprintf("🛑 Focus session stopped for <@%s>.", rec.UserID))
		return rec, nil
	}
	return c.registry.Get(sessionID)
}

// StopLatestForUser stops the user's most-recently-created running session.
func (c *LifecycleController) StopLatestForUser(userID string) (focuspulse.SessionRecord, error) {
	rec, err := c.registry.LatestRunningForUser(userID)
	if err != nil {
		return focuspulse.SessionRecord{}, err
	}
	return c.Stop(rec.SessionID)
}

// notify dispatches on its own goroutine so webhook latency never blocks a
// request or a timer callback.
func (c *LifecycleController) notify(channelID, text string) {
	go func() {
		c.messenger.Send(c.parentCtx, channelID, text)
	}()
}

// notifyWithCheer appends a generated encouragement before dispatching.
// The responder degrades to a fixed fallback line, so this never fails.
func (c *LifecycleController) notifyWithCheer(channelID, text, prompt string) {
	go func() {
		if cheer := c.responder.Reply(c.parentCtx, prompt); cheer != "" {
			text = text + " " + cheer
		}
		c.messenger.Send(c.parentCtx, channelID, text)
	}()
}
