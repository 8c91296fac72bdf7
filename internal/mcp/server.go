package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/crackedoura/backend/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "crackedoura"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	storage *storage.Context
	logger  *slog.Logger
}

// NewServer creates a new MCP server backed by sc. The caller keeps
// ownership of sc.
func NewServer(sc *storage.Context, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		storage: sc,
		logger:  logger,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP server on stdio until the input closes.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	s.mcp.AddTool(getSettingsTool(), s.handleGetSettings)
	s.mcp.AddTool(getDayTool(), s.handleGetDay)
}
