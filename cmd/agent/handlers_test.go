package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*apiServer, *mockMessenger, *fakeScheduler) {
	t.Helper()
	reg := NewSessionRegistry()
	sums := NewDailySummaryRegistry()
	mm := &mockMessenger{}
	fs := &fakeScheduler{}
	lc := NewLifecycleController(context.Background(), reg, mm, stubResponder{reply: "Go!"})
	lc.afterFunc = fs.afterFunc
	lc.unit = time.Millisecond
	return newAPIServer(lc, reg, sums, stubResponder{reply: "pong"}), mm, fs
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	}
	return rec, out
}

func TestStartFocusHandler(t *testing.T) {
	t.Parallel()

	t.Run("success with defaults", func(t *testing.T) {
		t.Parallel()
		api, _, fs := newTestAPI(t)
		router := api.router()

		rec, out := doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "started", out["status"])
		assert.NotEmpty(t, out["session_id"])
		assert.Equal(t, 25*time.Millisecond, fs.delays[0])

		rec, out = doJSON(t, router, http.MethodGet, "/status/u1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		sessions := out["sessions"].([]any)
		require.Len(t, sessions, 1)
		got := sessions[0].(map[string]any)
		assert.Equal(t, float64(25), got["duration_minutes"])
		assert.Equal(t, float64(5), got["break_minutes"])
		assert.Equal(t, "running", got["status"])
	})

	t.Run("explicit zero duration is not defaulted", func(t *testing.T) {
		t.Parallel()
		api, _, fs := newTestAPI(t)

		rec, _ := doJSON(t, api.router(), http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1","duration":0,"break":1}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, time.Duration(0), fs.delays[0])
	})

	t.Run("missing ids", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)
		router := api.router()

		rec, out := doJSON(t, router, http.MethodPost, "/start_focus", `{"channel_id":"c1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, out["error"], "user_id and channel_id required")

		rec, _ = doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, _ := doJSON(t, api.router(), http.MethodPost, "/start_focus", `{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStopFocusHandler(t *testing.T) {
	t.Parallel()

	t.Run("by session id", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)
		router := api.router()

		_, out := doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1"}`)
		sessionID := out["session_id"].(string)

		rec, out := doJSON(t, router, http.MethodPost, "/stop_focus", `{"session_id":"`+sessionID+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "stopped", out["status"])

		rec, out = doJSON(t, router, http.MethodGet, "/status/u1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := out["sessions"].([]any)[0].(map[string]any)
		assert.Equal(t, "stopped", got["status"])
	})

	t.Run("by user id targets latest running", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)
		router := api.router()

		_, first := doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1"}`)
		_, second := doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1"}`)

		rec, out := doJSON(t, router, http.MethodPost, "/stop_focus", `{"user_id":"u1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "stopped", out["status"])
		assert.Equal(t, second["session_id"], out["session_id"])
		assert.NotEqual(t, first["session_id"], out["session_id"])
	})

	t.Run("unknown session", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/stop_focus", `{"session_id":"nope"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "session not found", out["error"])
	})

	t.Run("no running session for user", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/stop_focus", `{"user_id":"u1"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "no running session for user", out["error"])
	})

	t.Run("neither id given", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/stop_focus", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "session_id or user_id required", out["error"])
	})
}

func TestStatusHandler_EmptyIsArray(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)
	rec, _ := doJSON(t, api.router(), http.MethodGet, "/status/unknown", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions":[]`)
}

func TestEnableDailySummaryHandler(t *testing.T) {
	t.Parallel()

	t.Run("default time", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/enable_daily_summary", `{"user_id":"u1","channel_id":"c1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "daily_summary_enabled", out["status"])
		assert.Equal(t, "21:00", out["time"])
	})

	t.Run("custom time", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/enable_daily_summary", `{"user_id":"u1","channel_id":"c1","time":"08:30"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "08:30", out["time"])
	})

	t.Run("malformed time", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/enable_daily_summary", `{"user_id":"u1","channel_id":"c1","time":"25:99"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, out["error"], "HH:MM")
	})

	t.Run("missing ids", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, _ := doJSON(t, api.router(), http.MethodPost, "/enable_daily_summary", `{"user_id":"u1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	t.Run("text passthrough", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/webhook", `{"text":"how do I focus?"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", out["reply"])
		assert.NotEmpty(t, out["timestamp"])
	})

	t.Run("prompt alias", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/webhook", `{"prompt":"hello"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", out["reply"])
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		api, _, _ := newTestAPI(t)

		rec, out := doJSON(t, api.router(), http.MethodPost, "/webhook", `{}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "text or prompt required", out["error"])
	})
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)
	rec, out := doJSON(t, api.router(), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestEndToEndFocusCycle(t *testing.T) {
	t.Parallel()

	// Real timers with a compressed minute: start over HTTP, watch both
	// phase notifications land, then read back the terminal status.
	reg := NewSessionRegistry()
	sums := NewDailySummaryRegistry()
	mm := &mockMessenger{}
	lc := NewLifecycleController(context.Background(), reg, mm, stubResponder{reply: "You did it!"})
	lc.unit = 10 * time.Millisecond
	router := newAPIServer(lc, reg, sums, stubResponder{reply: "pong"}).router()

	rec, out := doJSON(t, router, http.MethodPost, "/start_focus", `{"user_id":"u1","channel_id":"c1","duration":1,"break":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "started", out["status"])
	sessionID := out["session_id"].(string)
	require.NotEmpty(t, sessionID)

	waitForMessages(t, mm, "Focus session finished", 1)
	waitForMessages(t, mm, "Break over", 1)
	for _, m := range mm.messages() {
		assert.Equal(t, "c1", m.channelID)
	}

	rec, out = doJSON(t, router, http.MethodGet, "/status/u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := out["sessions"].([]any)
	require.Len(t, sessions, 1)
	got := sessions[0].(map[string]any)
	assert.Equal(t, sessionID, got["session_id"])
	assert.Equal(t, "completed", got["status"])
	assert.NotEmpty(t, got["completed_at"])
}
