package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with all scanbridge tools and resources
// registered. configPath points at the scanbridge.yaml every call reads.
func NewServer(configPath string, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := server.NewMCPServer(
		"scanbridge",
		"0.1.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, configPath, logger)
	registerResources(s, configPath, logger)

	return s
}
