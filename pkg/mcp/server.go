// Package mcp exposes the grow box over the Model Context Protocol: sensor
// samples, health issues, the zigbee roster and the settings document.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/settings"
)

// Server wraps the MCP server with the grow box stores
type Server struct {
	mcpServer  *server.MCPServer
	db         *db.DB
	controller device.Controller
	validator  *settings.Validator
}

// NewServer creates a new MCP server over the given database and zigbee
// roster
func NewServer(database *db.DB, controller device.Controller, validator *settings.Validator) *Server {
	s := &Server{
		db:         database,
		controller: controller,
		validator:  validator,
	}

	s.mcpServer = server.NewMCPServer(
		"growbox",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
