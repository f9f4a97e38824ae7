// Package mcp exposes the power reserve evaluation as MCP tools over stdio.
package mcp

import (
	"context"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server instance.
type Server struct {
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server with registered tools.
func NewServer(version string) *Server {
	s := server.NewMCPServer("pwrzv", version, server.WithLogging())

	registerTools(s)

	return &Server{
		mcpServer: s,
	}
}

// Start runs the server in stdio mode (blocking).
func (s *Server) Start(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.mcpServer)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// registerTools adds all supported tools to the server.
func registerTools(s *server.MCPServer) {
	// Tool: get_power_reserve
	levelTool := mcp.NewTool("get_power_reserve",
		mcp.WithDescription("Get the current power reserve level (0-5) summarizing how much spare capacity this host has. 5 means abundant headroom, 0 means critically loaded. Fast (~1s). No root required."),
	)
	s.AddTool(levelTool, handleGetPowerReserve)

	// Tool: get_power_reserve_details
	detailsTool := mcp.NewTool("get_power_reserve_details",
		mcp.WithDescription("Get the full power reserve evaluation: per-metric scores on the 0-5 scale, the overall score, bottleneck metrics, and any parameter override warnings. Returns JSON."),
	)
	s.AddTool(detailsTool, handleGetPowerReserveDetails)
}
