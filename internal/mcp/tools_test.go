package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crackedoura/backend/internal/logging"
	"github.com/crackedoura/backend/internal/records"
	"github.com/crackedoura/backend/internal/schema"
	"github.com/crackedoura/backend/internal/storage"
)

func setupTestServer(t *testing.T) (*Server, *storage.Context) {
	t.Helper()
	sc, err := storage.Open(storage.Options{DataDir: t.TempDir(), Schema: schema.Default(), Logger: logging.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Close() })
	require.NoError(t, sc.InitSchema(context.Background()))
	return NewServer(sc, logging.NewNop()), sc
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestHandleGetStatus(t *testing.T) {
	s, sc := setupTestServer(t)

	result, err := s.handleGetStatus(context.Background(), callRequest("get_status", map[string]interface{}{}))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, sc.Dir(), out["data_dir"])
	assert.Equal(t, sc.Path(), out["database"])
	assert.Equal(t, "resolved", out["outcome"])
	assert.Equal(t, storage.DriverName, out["driver"])
	assert.Equal(t, schema.Version, out["schema_version"])
	assert.NotContains(t, out, "resolution_error")
}

func TestHandleGetSettings(t *testing.T) {
	s, sc := setupTestServer(t)
	ctx := context.Background()

	require.NoError(t, sc.WithSession(ctx, func(sess *storage.Session) error {
		return records.SaveSettings(ctx, sess, records.Settings{DailySyncTime: "05:00", Email: "x@y.z"})
	}))

	result, err := s.handleGetSettings(ctx, callRequest("get_settings", nil))
	require.NoError(t, err)

	out := resultJSON(t, result)
	assert.Equal(t, "05:00", out["daily_sync_time"])
	assert.Equal(t, "x@y.z", out["email"])
	assert.Equal(t, int64(0), sc.Stats().Open)
}

func TestHandleGetDay(t *testing.T) {
	s, sc := setupTestServer(t)
	ctx := context.Background()

	require.NoError(t, sc.WithSession(ctx, func(sess *storage.Session) error {
		return records.UpsertDays(ctx, sess, []records.DayRecord{
			{Day: "2026-05-05", Metric: "readiness", Payload: json.RawMessage(`{"score":70}`)},
		})
	}))

	result, err := s.handleGetDay(ctx, callRequest("get_day", map[string]interface{}{"date": "2026-05-05"}))
	require.NoError(t, err)
	out := resultJSON(t, result)
	assert.Equal(t, float64(1), out["count"])
	metrics, ok := out["metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, metrics, "readiness")

	t.Run("missing date", func(t *testing.T) {
		_, err := s.handleGetDay(ctx, callRequest("get_day", map[string]interface{}{}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		_, err := s.handleGetDay(ctx, callRequest("get_day", map[string]interface{}{"date": "May 5"}))
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	t.Run("non-map arguments", func(t *testing.T) {
		req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: "get_day", Arguments: "2026-05-05"}}
		_, err := s.handleGetDay(ctx, req)
		var mcpErr *MCPError
		require.ErrorAs(t, err, &mcpErr)
		assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
	})

	assert.Equal(t, int64(0), sc.Stats().Open)
}

func TestMCPError(t *testing.T) {
	err := newMCPError(ErrorCodeInternalError, "boom", nil)
	assert.Equal(t, "MCP error -32603: boom", err.Error())
}
