package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/eventboard/internal/api"
	"github.com/Togather-Foundation/eventboard/internal/auth"
	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/metrics"
	"github.com/Togather-Foundation/eventboard/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the eventboard HTTP server",
	Long: `Start the HTTP server: the events API under /api, health and metrics
endpoints, and the embedded frontend for every other path.

Shuts down gracefully on SIGINT/SIGTERM.

Examples:
  # Start with configuration from environment variables
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Use the in-memory store for local development
  DATABASE_URL=memory:// IDENTITY_SECRET_KEY=dev server serve --log-format console`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	addServerFlags(serveCmd)
}

// addServerFlags registers --host and --port. The root command registers
// them too since it runs serve by default.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 3000)")
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting eventboard server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	repo, closeRepo, err := openRepository(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	handler := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Service:  events.NewService(repo),
		Verifier: verifier,
	})

	server := newHTTPServer(cfg.Server.Addr(), handler)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, server, logger)
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// serve runs server until ctx is cancelled, then shuts it down gracefully.
// A listener failure is returned as the error.
func serve(ctx context.Context, server *http.Server, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	})

	return g.Wait()
}
