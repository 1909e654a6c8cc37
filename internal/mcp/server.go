// ABOUTME: MCP server setup for the pump training log.
// ABOUTME: Every tool goes through the Syncer so cached reads stay coherent with writes.
package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/pump/internal/logger"
	"github.com/harperreed/pump/internal/sync"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with syncer access.
type Server struct {
	mcpServer *mcp.Server
	syncer    *sync.Syncer
	log       *logger.Logger
}

// NewServer creates a new MCP server over the given syncer.
func NewServer(syncer *sync.Syncer, log *logger.Logger) (*Server, error) {
	if syncer == nil {
		return nil, errors.New("mcp server needs a syncer")
	}
	if log == nil {
		log = logger.Nop()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pump",
			Version: Version,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		syncer:    syncer,
		log:       log,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.Info("mcp server starting", "user_id", s.syncer.UserID())
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
