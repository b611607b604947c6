package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"courier/internal/app"
)

// shutdownGrace bounds how long in-flight requests may run after the
// termination signal.
const shutdownGrace = 10 * time.Second

// serve: run the broker until SIGINT/SIGTERM.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the broker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires the broker, starts the reaper and the listener, and tears
// everything down in order on a termination signal.
func runServe(ctx context.Context) error {
	log := newLogger()
	cfg := loadConfig()

	wire := app.NewWire(cfg, nil, nil, log)
	wire.Reaper.Start()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: wire.Server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Str("version", app.Version).Msg("broker listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		wire.Reaper.Stop()
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	// Refuse new ingress first, then close sessions with a terminal reason
	// and stop the sweeps. The pool is not drained: clients re-poll.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("listener shutdown")
	}
	wire.Sessions.CloseAll("server shutting down")
	wire.Reaper.Stop()
	return nil
}

// loadConfig layers command-line flags over the environment config.
func loadConfig() app.Config {
	cfg := app.ConfigFromEnv()
	if port > 0 {
		cfg.Port = port
	}
	if len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}
	if len(peers) > 0 {
		cfg.Peers = peers
	}
	if defaultTTL != "" {
		if d, err := time.ParseDuration(defaultTTL); err == nil && d > 0 {
			cfg.DefaultTTL = d
		}
	}
	return cfg
}

// newLogger builds the process logger at the configured level.
func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
