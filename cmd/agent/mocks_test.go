package main

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

type sentMessage struct {
	channelID, text string
}

// mockMessenger records every dispatch; safe for concurrent use since
// notifications run on their own goroutines.
type mockMessenger struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (m *mockMessenger) Send(_ context.Context, channelID, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{channelID: channelID, text: text})
	return true
}

func (m *mockMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *mockMessenger) countContaining(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if strings.Contains(s.text, substr) {
			n++
		}
	}
	return n
}

type stubResponder struct {
	reply string
}

func (r stubResponder) Reply(context.Context, string) string {
	return r.reply
}

// fakeScheduler captures timer callbacks so tests fire them by hand
// instead of waiting on the wall clock.
type fakeScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
	fns    []func()
}

func (f *fakeScheduler) afterFunc(d time.Duration, fn func()) *time.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	f.fns = append(f.fns, fn)
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}

func (f *fakeScheduler) scheduled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fns)
}

func (f *fakeScheduler) fire(t *testing.T, i int) {
	t.Helper()
	f.mu.Lock()
	if i >= len(f.fns) {
		f.mu.Unlock()
		t.Fatalf("no scheduled callback at index %d", i)
	}
	fn := f.fns[i]
	f.mu.Unlock()
	fn()
}
