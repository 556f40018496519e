// Package http provides the REST surface for the shelfd catalog.
//
// Routes are registered on a caller-supplied echo instance so the
// daemon can host this API, the MCP endpoint and the metrics handler
// on one listener. Lifecycle (start, shutdown) belongs to the caller.
package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	"github.com/fyrsmithlabs/shelfd/internal/logging"
	"github.com/fyrsmithlabs/shelfd/internal/mcp"
)

// Server provides the REST endpoints for the book catalog.
type Server struct {
	echo      *echo.Echo
	store     *catalog.Store
	publisher catalog.Publisher
	logger    *logging.Logger
}

// NewServer creates a REST server over the given store. The publisher
// is optional; nil disables change events.
func NewServer(e *echo.Echo, store *catalog.Store, publisher catalog.Publisher, logger *logging.Logger) (*Server, error) {
	if e == nil {
		return nil, fmt.Errorf("echo instance is required")
	}
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Server{
		echo:      e,
		store:     store,
		publisher: publisher,
		logger:    logger.Named("http"),
	}, nil
}

// RegisterRoutes sets up the HTTP endpoints.
func (s *Server) RegisterRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/books", s.handleCreateBook)
	v1.GET("/books", s.handleListBooks)
	v1.GET("/books/search", s.handleSearchBooks)
	v1.GET("/books/id/:id", s.handleGetBook)
	v1.DELETE("/books/id/:id", s.handleDeleteBook)
	v1.GET("/status", s.handleStatus)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: mcp.ServerVersion})
}

// handleStatus reports catalog counts alongside the health fields.
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: mcp.ServerVersion,
		Counts:  StatusCounts{Books: s.store.Count()},
	})
}
