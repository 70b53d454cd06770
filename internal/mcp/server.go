// Package mcp serves read-only event queries over the Model Context Protocol.
package mcp

import (
	"context"
	"fmt"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/mcp/resources"
	"github.com/Togather-Foundation/eventboard/internal/mcp/tools"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

type Config struct {
	Name    string
	Version string
}

// Server wraps the MCP server with the events service.
type Server struct {
	mcp           *mcpserver.MCPServer
	eventsService *events.Service
}

func NewServer(cfg Config, eventsService *events.Service) *Server {
	if cfg.Name == "" {
		cfg.Name = "eventboard"
	}

	mcpServer := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("Read-only access to the eventboard: list events, filter them by date or text, and fetch one by ID."),
	)

	srv := &Server{
		mcp:           mcpServer,
		eventsService: eventsService,
	}
	srv.registerTools()
	srv.registerResources()
	return srv
}

// MCPServer returns the underlying server for use with transports.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	eventTools := tools.NewEventTools(s.eventsService)
	s.mcp.AddTool(eventTools.ListEventsTool(), eventTools.ListEventsHandler)
	s.mcp.AddTool(eventTools.GetEventTool(), eventTools.GetEventHandler)
}

func (s *Server) registerResources() {
	eventResources := resources.NewEventResources(s.eventsService)
	s.mcp.AddResource(eventResources.Resource(), eventResources.ReadHandler)
}

// ServeStdio serves MCP on stdin/stdout until the client disconnects or ctx
// is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("starting MCP server with stdio transport")

	errCh := make(chan error, 1)
	go func() {
		if err := mcpserver.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("stdio server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("context cancelled, stdio server stopping")
		return nil
	case err := <-errCh:
		return err
	}
}
