package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report where the database lives and how storage sessions are being used",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getSettingsTool returns the tool definition for get_settings
func getSettingsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_settings",
		Description: "Read the daily sync time and account email",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getDayTool returns the tool definition for get_day
func getDayTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_day",
		Description: "Read every stored metric for one calendar day",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"date": map[string]interface{}{
					"type":        "string",
					"description": "Day in YYYY-MM-DD format",
					"pattern":     `^\d{4}-\d{2}-\d{2}$`,
				},
			},
			Required: []string{"date"},
		},
	}
}
