package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	EventsURI      = "eventboard://events"
	eventsMIMEType = "application/json"
)

// EventResources publishes the current event list as a readable resource.
type EventResources struct {
	eventsService *events.Service
}

func NewEventResources(eventsService *events.Service) *EventResources {
	return &EventResources{eventsService: eventsService}
}

func (r *EventResources) Resource() mcp.Resource {
	return mcp.NewResource(
		EventsURI,
		"All events",
		mcp.WithResourceDescription("Every event on the board as a JSON array, ordered by creation"),
		mcp.WithMIMEType(eventsMIMEType),
	)
}

func (r *EventResources) ReadHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	items, err := r.eventsService.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}

	uri := EventsURI
	if request.Params.URI != "" {
		uri = request.Params.URI
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: eventsMIMEType,
			Text:     string(payload),
		},
	}, nil
}
