package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "compintel"
	serverVersion = "1.0.0"
)

func newServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	registerTools(s, deps)
	return s
}

// Serve starts the MCP stdio server with all tools registered.
func Serve(deps Deps) error {
	return server.ServeStdio(newServer(deps))
}
