package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Juleshb/umunsiapp-realtime/internal/config"
	"github.com/Juleshb/umunsiapp-realtime/internal/dispatch"
	"github.com/Juleshb/umunsiapp-realtime/internal/platform/logging"
	"github.com/Juleshb/umunsiapp-realtime/internal/platform/version"
	"github.com/Juleshb/umunsiapp-realtime/internal/presence"
	"github.com/Juleshb/umunsiapp-realtime/internal/registry"
	"github.com/Juleshb/umunsiapp-realtime/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, reg *registry.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		reg.Stop()

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting umunsiapp-realtime",
		"version", version.Version,
		"commit", version.Commit,
		"env", cfg.AppEnv,
	)

	clock := clockwork.NewRealClock()

	// Wiring order matters: the dispatcher needs the registry for snapshots
	// and delivery, and the presence tracker needs the dispatcher for
	// transition broadcasts. The callback is installed after construction
	// to break the cycle; the goroutine hop keeps the registry's command
	// loop from re-entering itself.
	tracker := presence.NewTracker(clock, nil)
	reg := registry.NewRegistry(tracker, clock)
	dispatcher := dispatch.NewDispatcher(dispatch.NewRouter(reg), reg)
	tracker.SetOnTransition(func(userID string, online bool) {
		go dispatcher.BroadcastPresence(userID, online)
	})

	srv := server.NewServer(cfg, reg, dispatcher)
	done := runGracefulShutdown(srv, reg)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
	slog.Info("Shutdown complete")
}
