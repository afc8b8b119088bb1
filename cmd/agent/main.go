package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/focuspulse/focuspulse-go"
	"github.com/focuspulse/focuspulse-go/telex"
)

const (
	RepoURL = "https://github.com/focuspulse/focuspulse-go"
	Version = "0.1.0"
)

func main() {
	// logger
	log.SetLevel(log.DebugLevel)
	log.SetReportCaller(true)
	topCtx, topCtxC := context.WithCancel(context.Background())

	// config
	cfg, err := focuspulse.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.TelexWebhookURL == "" {
		log.Warn("TELEX_WEBHOOK_URL not set - notifications will be logged only")
	}

	// adapters
	messenger := telex.NewClient(cfg.TelexWebhookURL)
	responder := NewOpenAIResponder(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	// registries + lifecycle controller
	sessions := NewSessionRegistry()
	summaries := NewDailySummaryRegistry()
	lifecycle := NewLifecycleController(topCtx, sessions, messenger, responder)

	// daily digest worker
	digest := NewDigestWorker(sessions, summaries, messenger, responder,
		time.Duration(cfg.DigestPollSeconds)*time.Second)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		digest.Run(topCtx)
	}()

	// http server
	api := newAPIServer(lifecycle, sessions, summaries, responder)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("FocusPulse agent running. Press CTRL-C to exit.", "addr", srv.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "err", err)
		}
	}()

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	log.Info("terminating FocusPulse agent")
	topCtxC()

	shutdownCtx, shutdownC := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownC()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shut down gracefully", "err", err)
	}
	wg.Wait()
}
