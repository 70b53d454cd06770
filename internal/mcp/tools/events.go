package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// EventTools exposes read-only event queries as MCP tools.
type EventTools struct {
	eventsService *events.Service
}

func NewEventTools(eventsService *events.Service) *EventTools {
	return &EventTools{eventsService: eventsService}
}

func (t *EventTools) ListEventsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_events",
		Description: "List events ordered by creation. Optionally filter by an inclusive date range and a case-insensitive text query over title, description and location.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Text to look for in the title, description or location",
				},
				"start_date": map[string]interface{}{
					"type":        "string",
					"description": "Only events on or after this date (YYYY-MM-DD)",
				},
				"end_date": map[string]interface{}{
					"type":        "string",
					"description": "Only events on or before this date (YYYY-MM-DD)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of events to return (default: 50, max: 200)",
					"default":     defaultListLimit,
				},
			},
		},
	}
}

func (t *EventTools) ListEventsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	args := struct {
		Query     string `json:"query"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Limit     int    `json:"limit"`
	}{
		Limit: defaultListLimit,
	}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	if args.Limit <= 0 {
		args.Limit = defaultListLimit
	}
	if args.Limit > maxListLimit {
		args.Limit = maxListLimit
	}
	for _, date := range []string{args.StartDate, args.EndDate} {
		if date != "" && !events.IsDate(date) {
			return mcp.NewToolResultErrorf("invalid date %q: expected YYYY-MM-DD", date), nil
		}
	}

	all, err := t.eventsService.List(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list events", err), nil
	}

	query := strings.ToLower(strings.TrimSpace(args.Query))
	items := make([]events.Event, 0, len(all))
	for _, event := range all {
		// YYYY-MM-DD strings order the same as the dates they name.
		if args.StartDate != "" && event.Date < args.StartDate {
			continue
		}
		if args.EndDate != "" && event.Date > args.EndDate {
			continue
		}
		if query != "" && !matchesQuery(event, query) {
			continue
		}
		items = append(items, event)
		if len(items) == args.Limit {
			break
		}
	}

	return toolResultJSON(map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (t *EventTools) GetEventTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_event",
		Description: "Get a single event by its ULID.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "The ULID of the event to retrieve",
				},
			},
			Required: []string{"id"},
		},
	}
}

func (t *EventTools) GetEventHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.eventsService == nil {
		return mcp.NewToolResultError("events service not configured"), nil
	}

	args := struct {
		ID string `json:"id"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if strings.TrimSpace(args.ID) == "" {
		return mcp.NewToolResultError("id is required"), nil
	}

	event, err := t.eventsService.Get(ctx, args.ID)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return mcp.NewToolResultErrorf("event %s not found", args.ID), nil
		}
		return mcp.NewToolResultErrorFromErr("failed to get event", err), nil
	}

	return toolResultJSON(event)
}

func matchesQuery(event events.Event, query string) bool {
	for _, field := range []string{event.Title, event.Description, event.Location} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}
