package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/focuspulse/focuspulse-go"
	"github.com/gorilla/mux"
)

type apiServer struct {
	lifecycle *LifecycleController
	sessions  *SessionRegistry
	summaries *DailySummaryRegistry
	responder Responder
}

func newAPIServer(lifecycle *LifecycleController, sessions *SessionRegistry, summaries *DailySummaryRegistry, responder Responder) *apiServer {
	return &apiServer{
		lifecycle: lifecycle,
		sessions:  sessions,
		summaries: summaries,
		responder: responder,
	}
}

func (s *apiServer) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/start_focus", s.startFocus).Methods(http.MethodPost)
	r.HandleFunc("/stop_focus", s.stopFocus).Methods(http.MethodPost)
	r.HandleFunc("/status/{user_id}", s.status).Methods(http.MethodGet)
	r.HandleFunc("/enable_daily_summary", s.enableDailySummary).Methods(http.MethodPost)
	r.HandleFunc("/webhook", s.webhook).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	return r
}

type startFocusRequest struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	// Pointers distinguish absent from an explicit zero; an explicit
	// duration of 0 means an immediately-expiring focus phase, not the
	// default.
	Duration *int `json:"duration"`
	Break    *int `json:"break"`
}

func (s *apiServer) startFocus(w http.ResponseWriter, req *http.Request) {
	var body startFocusRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	duration := focuspulse.DefaultFocusMinutes
	if body.Duration != nil {
		duration = *body.Duration
	}
	brk := focuspulse.DefaultBreakMinutes
	if body.Break != nil {
		brk = *body.Break
	}

	rec, err := s.lifecycle.Start(body.UserID, body.ChannelID, duration, brk)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": rec.SessionID,
		"status":     "started",
	})
}

type stopFocusRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

func (s *apiServer) stopFocus(w http.ResponseWriter, req *http.Request) {
	var body stopFocusRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.SessionID == "" && body.UserID == "" {
		writeError(w, http.StatusBadRequest, "session_id or user_id required")
		return
	}

	if body.SessionID != "" {
		if _, err := s.lifecycle.Stop(body.SessionID); err != nil {
			if errors.Is(err, focuspulse.ErrNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "stopped"})
		return
	}

	rec, err := s.lifecycle.StopLatestForUser(body.UserID)
	if err != nil {
		if errors.Is(err, focuspulse.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no running session for user")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "stopped",
		"session_id": rec.SessionID,
	})
}

func (s *apiServer) status(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["user_id"]
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.ListForUser(userID),
	})
}

type enableDailySummaryRequest struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Time      string `json:"time"`
}

func (s *apiServer) enableDailySummary(w http.ResponseWriter, req *http.Request) {
	var body enableDailySummaryRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Time == "" {
		body.Time = focuspulse.DefaultSummaryTime
	}

	rec, err := s.summaries.Enable(body.UserID, body.ChannelID, body.Time)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "daily_summary_enabled",
		"time":   rec.ScheduledTime,
	})
}

type webhookRequest struct {
	Text   string `json:"text"`
	Prompt string `json:"prompt"`
}

// webhook is a direct pass-through to the text generator; no session state
// is touched.
func (s *apiServer) webhook(w http.ResponseWriter, req *http.Request) {
	var body webhookRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	prompt := body.Text
	if prompt == "" {
		prompt = body.Prompt
	}
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "text or prompt required")
		return
	}

	reply := s.responder.Reply(req.Context(), prompt)
	writeJSON(w, http.StatusOK, map[string]any{
		"reply":     reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *apiServer) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps registry/controller errors onto HTTP statuses; no
// internal error crosses the handler boundary unwrapped.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve focuspulse.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, focuspulse.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
