package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/Togather-Foundation/eventboard/internal/config"
	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve read-only event queries over MCP (stdio)",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the
list_events and get_event tools and the events resource.

Logs go to stderr so stdout stays reserved for the protocol.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewStderrLogger(cfg.Logging)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx = logger.WithContext(ctx)

		repo, closeRepo, err := openRepository(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer closeRepo()

		server := mcp.NewServer(mcp.Config{Name: "eventboard", Version: Version}, events.NewService(repo))
		if err := server.ServeStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
