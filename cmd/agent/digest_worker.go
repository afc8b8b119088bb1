package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// DigestWorker periodically scans the digest opt-ins and sends each user at
// most one summary per scheduled minute per day, within a single process
// lifetime. A poll interval coarser than a minute can skip a scheduled
// time entirely; no catch-up is performed.
type DigestWorker struct {
	sessions  *SessionRegistry
	summaries *DailySummaryRegistry
	messenger Messenger
	responder Responder

	interval time.Duration
	now      func() time.Time

	// sentToday is only touched from the worker goroutine.
	sentToday map[sentKey]struct{}
}

type sentKey struct {
	userID string
	hhmm   string
}

func NewDigestWorker(sessions *SessionRegistry, summaries *DailySummaryRegistry, messenger Messenger, responder Responder, interval time.Duration) *DigestWorker {
	return &DigestWorker{
		sessions:  sessions,
		summaries: summaries,
		messenger: messenger,
		responder: responder,
		interval:  interval,
		now:       time.Now,
		sentToday: make(map[sentKey]struct{}),
	}
}

// Run polls until ctx is cancelled.
func (w *DigestWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	log.Info("daily digest worker running", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("daily digest worker stopping")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick performs one scan against the reference clock. The sent set only
// resets when a tick lands exactly on 00:00; a process that never ticks at
// midnight keeps the set, matching the documented limitation.
func (w *DigestWorker) tick(ctx context.Context) {
	hhmm := w.now().Format("15:04")

	for _, cfg := range w.summaries.Snapshot() {
		if !cfg.Enabled || cfg.ScheduledTime != hhmm {
			continue
		}
		key := sentKey{userID: cfg.UserID, hhmm: hhmm}
		if _, sent := w.sentToday[key]; sent {
			continue
		}

		completed := w.sessions.ListCompletedForUser(cfg.UserID)
		count := len(completed)
		totalMinutes := 0
		for _, s := range completed {
			totalMinutes += s.DurationMinutes
		}
		msg := fmt.Sprintf("📊 Daily Focus Summary: You completed %d sessions today, totaling %d minutes.", count, totalMinutes)

		// Snapshot taken, lock released; dispatch runs on its own
		// goroutine so a slow webhook or model call cannot delay the
		// next tick.
		channelID := cfg.ChannelID
		go func() {
			prompt := fmt.Sprintf(
				"Write one short motivating sentence for someone who completed %d focus sessions totaling %d minutes today.",
				count, totalMinutes)
			if cheer := w.responder.Reply(ctx, prompt); cheer != "" {
				msg = msg + " " + cheer
			}
			w.messenger.Send(ctx, channelID, msg)
		}()

		w.sentToday[key] = struct{}{}
		log.Debug("dispatched daily digest", "userID", cfg.UserID, "time", hhmm, "sessions", count)
	}

	if hhmm == "00:00" {
		w.sentToday = make(map[sentKey]struct{})
	}
}
