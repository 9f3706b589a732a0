// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/activity-board/internal/config"
	"github.com/Shivanand-hulikatti/activity-board/internal/handler"
	"github.com/Shivanand-hulikatti/activity-board/internal/metrics"
	"github.com/Shivanand-hulikatti/activity-board/internal/repository"
	"github.com/Shivanand-hulikatti/activity-board/internal/service"
	"github.com/Shivanand-hulikatti/activity-board/internal/session"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// ── 1. Configuration ─────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	csrfKey, err := cfg.CSRFKeyBytes()
	if err != nil {
		return err
	}
	if csrfKey == nil {
		logger.Warn("csrf_disabled", "hint", "set CSRF_KEY to a 64 character hex string")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	m := metrics.New()
	repo, err := repository.NewActivityRepository(cfg.ActivitiesAPIURL, &http.Client{Timeout: cfg.APITimeout}, m)
	if err != nil {
		return err
	}
	ctrl := service.NewController(repo, service.Options{
		SignupBannerTTL:     cfg.SignupBannerTTL,
		UnregisterBannerTTL: cfg.UnregisterBannerTTL,
		Metrics:             m,
		Logger:              logger,
	})
	sessions := session.NewStore(session.Config{
		TTL:       cfg.SessionTTL,
		MaxBoards: cfg.SessionMaxBoards,
		Secure:    cfg.CSRFSecure,
		Metrics:   m,
	})
	boardHandler := handler.NewBoardHandler(ctrl, sessions)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, time.Minute)

	// ── 3. Build the router ───────────────────────────────────────────────
	router := handler.NewRouter(boardHandler, handler.RouterConfig{
		CSRFKey:    csrfKey,
		CSRFSecure: cfg.CSRFSecure,
		Metrics:    m.Handler(),
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_listening", "addr", cfg.Addr(), "activities_api", cfg.ActivitiesAPIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Block until SIGINT/SIGTERM or a listener failure.
	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server_stopped")
	return nil
}
