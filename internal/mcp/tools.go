package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crackedoura/backend/internal/records"
	"github.com/crackedoura/backend/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.storage.Resolution()
	stats := s.storage.Stats()

	response := map[string]interface{}{
		"data_dir":   s.storage.Dir(),
		"database":   s.storage.Path(),
		"outcome":    res.Outcome.String(),
		"driver":     storage.DriverName,
		"build_mode": storage.BuildMode,
		"sessions": map[string]interface{}{
			"open":     stats.Open,
			"acquired": stats.Acquired,
			"released": stats.Released,
		},
	}
	if res.Err != nil {
		response["resolution_error"] = res.Err.Error()
	}

	version, err := s.storage.SchemaVersion(ctx)
	if err != nil {
		response["schema_version_error"] = err.Error()
	} else {
		response["schema_version"] = version
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetSettings handles the get_settings tool invocation
func (s *Server) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var settings records.Settings
	err := s.storage.WithSession(ctx, func(sess *storage.Session) error {
		var err error
		settings, err = records.GetSettings(ctx, sess)
		return err
	})
	if err != nil {
		s.logger.Error("get_settings failed", "error", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to read settings", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"daily_sync_time": settings.DailySyncTime,
		"email":           settings.Email,
	})), nil
}

// handleGetDay handles the get_day tool invocation
func (s *Server) handleGetDay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	date := getStringDefault(args, "date", "")
	if date == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "date parameter is required", map[string]interface{}{
			"param":  "date",
			"reason": "missing or empty",
		})
	}

	var day []records.DayRecord
	err := s.storage.WithSession(ctx, func(sess *storage.Session) error {
		var err error
		day, err = records.GetDay(ctx, sess, date)
		return err
	})
	if errors.Is(err, records.ErrInvalid) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid date", map[string]interface{}{
			"param":  "date",
			"reason": err.Error(),
		})
	}
	if err != nil {
		s.logger.Error("get_day failed", "date", date, "error", err)
		return nil, newMCPError(ErrorCodeInternalError, "failed to read day", map[string]interface{}{
			"error": err.Error(),
		})
	}

	metrics := make(map[string]interface{}, len(day))
	for _, r := range day {
		metrics[r.Metric] = r.Payload
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"date":    date,
		"count":   len(day),
		"metrics": metrics,
	})), nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
