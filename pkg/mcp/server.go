package mcp

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	tools "github.com/fyrsmithlabs/shelfd/internal/mcp"
)

// Server implements the MCP protocol over HTTP with the Echo router.
//
// The server provides:
//   - JSON-RPC 2.0 method routing on POST /mcp
//   - session lifecycle (initialize handshake, Mcp-Session-Id header,
//     DELETE /mcp termination)
//   - tool discovery and invocation through the shared bridge
//
// Example usage:
//
//	mcpServer, err := mcp.NewServer(echo, bridge, logger)
//	if err != nil {
//	    return err
//	}
//	mcpServer.RegisterRoutes()
type Server struct {
	echo     *echo.Echo
	bridge   *tools.Bridge
	sessions *SessionStore
	logger   *zap.Logger
}

// NewServer creates an MCP server over the given bridge.
//
// A nil logger discards log output.
func NewServer(e *echo.Echo, bridge *tools.Bridge, logger *zap.Logger) (*Server, error) {
	if e == nil {
		return nil, fmt.Errorf("echo instance is required")
	}
	if bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		echo:     e,
		bridge:   bridge,
		sessions: NewSessionStore(),
		logger:   logger,
	}, nil
}

// RegisterRoutes registers the MCP protocol endpoints.
//
// Registered endpoints:
//   - POST   /mcp (JSON-RPC method routing)
//   - DELETE /mcp (session termination)
func (s *Server) RegisterRoutes() {
	s.echo.POST("/mcp", s.handleMCPRequest)
	s.echo.DELETE("/mcp", s.handleMCPDelete)
}

// handleMCPDelete handles DELETE /mcp, terminating the session named by
// the Mcp-Session-Id header.
func (s *Server) handleMCPDelete(c echo.Context) error {
	sessionID := c.Request().Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		return c.NoContent(http.StatusBadRequest)
	}

	s.sessions.Delete(sessionID)
	s.logger.Info("MCP session terminated", zap.String("session_id", sessionID))

	return c.NoContent(http.StatusNoContent)
}
