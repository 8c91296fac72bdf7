// Package mcp exposes the backend's stored data as MCP tools over stdio.
//
// # Tools
//
//   - get_status: data directory, how it was resolved, driver, schema version
//     and session counters
//   - get_settings: the user's sync settings
//   - get_day: every metric stored for one day (YYYY-MM-DD)
//
// Each tool call runs on its own storage session, which is closed before the
// result is returned.
//
// # Errors
//
// Invalid arguments are reported with code -32602; storage failures with
// -32603.
package mcp
