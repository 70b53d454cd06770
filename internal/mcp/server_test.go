package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Togather-Foundation/eventboard/internal/domain/events"
	"github.com/Togather-Foundation/eventboard/internal/storage/memory"
	"github.com/stretchr/testify/require"
)

func TestNewServerRegistersTools(t *testing.T) {
	srv := NewServer(Config{Version: "test"}, events.NewService(memory.NewEventRepository()))
	require.NotNil(t, srv.MCPServer())

	ctx := context.Background()
	response := srv.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	payload, err := json.Marshal(response)
	require.NoError(t, err)
	require.Contains(t, string(payload), "list_events")
	require.Contains(t, string(payload), "get_event")

	response = srv.MCPServer().HandleMessage(ctx, json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`))
	payload, err = json.Marshal(response)
	require.NoError(t, err)
	require.Contains(t, string(payload), "eventboard://events")
}
