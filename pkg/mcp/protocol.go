package mcp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	tools "github.com/fyrsmithlabs/shelfd/internal/mcp"
)

// SessionStore manages MCP protocol sessions in memory.
//
// Sessions are created during the initialize handshake and tracked via
// the Mcp-Session-Id header. The store is an in-memory map with
// concurrent access safety; sessions do not survive a daemon restart,
// matching the in-memory catalog they front.
type SessionStore struct {
	sessions sync.Map // map[string]*Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Create creates a new session for the given initialize params.
//
// Returns the created session with a generated UUID.
func (s *SessionStore) Create(params InitializeParams) *Session {
	session := &Session{
		ID:              uuid.New().String(),
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		ClientInfo:      params.ClientInfo,
		CreatedAt:       time.Now(),
		LastAccessedAt:  time.Now(),
	}
	s.sessions.Store(session.ID, session)
	return session
}

// Get retrieves a session by ID and refreshes its last-accessed time.
//
// Returns nil if the session doesn't exist.
func (s *SessionStore) Get(sessionID string) *Session {
	if val, ok := s.sessions.Load(sessionID); ok {
		if session, ok := val.(*Session); ok {
			session.LastAccessedAt = time.Now()
			s.sessions.Store(sessionID, session)
			return session
		}
	}
	return nil
}

// Delete removes a session from the store.
func (s *SessionStore) Delete(sessionID string) {
	s.sessions.Delete(sessionID)
}

// negotiateProtocolVersion negotiates the protocol version between
// client and server.
//
// Currently supports:
//   - 2024-11-05 (MCP Streamable HTTP spec)
//
// Defaults to 2024-11-05 if the client requests an unsupported version.
func negotiateProtocolVersion(requested string) string {
	supportedVersions := []string{
		"2024-11-05",
	}

	for _, supported := range supportedVersions {
		if requested == supported {
			return supported
		}
	}

	return "2024-11-05"
}

// handleMCPRequest handles POST /mcp with JSON-RPC 2.0 method routing.
//
// This is the main MCP protocol endpoint. Requests route on the
// JSON-RPC method field:
//   - initialize: create a new session and return capabilities
//   - ping: liveness check, no session required
//   - tools/list: list available tools
//   - tools/call: call a tool through the bridge
//
// Per the MCP streamable HTTP spec, this endpoint:
//   - validates the Accept header includes both application/json and
//     text/event-stream
//   - returns an Mcp-Session-Id header after a successful initialize
//   - requires the Mcp-Session-Id header for tool methods
//   - acknowledges notifications with 202 and no body
func (s *Server) handleMCPRequest(c echo.Context) error {
	accept := c.Request().Header.Get("Accept")
	if !validateAcceptHeader(accept) {
		return c.JSON(http.StatusNotAcceptable, JSONRPCError{
			JSONRPC: "2.0",
			ID:      nil,
			Error: &ErrorDetail{
				Code:    InvalidRequest,
				Message: "Not Acceptable: client must accept both application/json and text/event-stream",
				Data: map[string]any{
					"accept_header": accept,
					"required":      "application/json, text/event-stream",
				},
			},
		})
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return JSONRPCErrorWithContext(c, nil, ParseError, err)
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return JSONRPCErrorWithContext(c, recoverRequestID(body), ParseError, err)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(c, req)

	case "ping":
		return JSONRPCSuccess(c, req.ID, map[string]any{})

	case "tools/list":
		return s.handleToolsList(c, req)

	case "tools/call":
		return s.handleToolsCall(c, req)

	default:
		// Notifications never get a JSON-RPC response, known or not.
		if strings.HasPrefix(req.Method, "notifications/") {
			return c.NoContent(http.StatusAccepted)
		}
		return JSONRPCErrorWithContext(c, req.ID, MethodNotFound,
			fmt.Errorf("unknown method: %s", req.Method))
	}
}

// recoverRequestID extracts the JSON-RPC id from a body that failed to
// decode as a full request, so the error response can still correlate.
// Returns nil when the id itself is unrecoverable.
func recoverRequestID(body []byte) any {
	var probe struct {
		ID any `json:"id"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil
	}
	return probe.ID
}

// validateAcceptHeader checks if the Accept header includes the
// required media types.
//
// Per the MCP spec, the client MUST accept both:
//   - application/json (for JSON-RPC responses)
//   - text/event-stream (for SSE streaming)
func validateAcceptHeader(accept string) bool {
	if accept == "" {
		return false
	}

	hasJSON := strings.Contains(accept, "application/json")
	hasSSE := strings.Contains(accept, "text/event-stream")

	return hasJSON && hasSSE
}

// handleInitialize handles the initialize method.
//
// This method creates a new session, returns the Mcp-Session-Id header,
// and announces server capabilities. It is the one method that does not
// require an existing session.
func (s *Server) handleInitialize(c echo.Context, req JSONRPCRequest) error {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return JSONRPCErrorWithContext(c, req.ID, InvalidParams, err)
		}
	}

	session := s.sessions.Create(params)

	c.Response().Header().Set("Mcp-Session-Id", session.ID)
	c.Response().Header().Set("Mcp-Protocol-Version", session.ProtocolVersion)

	s.logger.Info("MCP session initialized",
		zap.String("session_id", session.ID),
		zap.String("client", params.ClientInfo.Name),
		zap.String("client_version", params.ClientInfo.Version))

	result := InitializeResult{
		ProtocolVersion: session.ProtocolVersion,
		Capabilities: ServerCapabilities{
			Tools: map[string]any{"listChanged": false},
		},
		ServerInfo: ServerInfo{
			Name:    tools.ServerName,
			Version: tools.ServerVersion,
		},
	}

	return JSONRPCSuccess(c, req.ID, result)
}

// handleToolsList handles the tools/list method.
//
// Requires a valid session ID in the Mcp-Session-Id header. Definitions
// come straight from the bridge registry, so this surface can never
// drift from what tools/call accepts.
func (s *Server) handleToolsList(c echo.Context, req JSONRPCRequest) error {
	if err := s.validateSession(c); err != nil {
		return jsonrpcSessionError(c, req.ID, err)
	}

	descriptors := s.bridge.ListTools()
	defs := make([]ToolDefinition, 0, len(descriptors))
	for _, d := range descriptors {
		defs = append(defs, ToolDefinition{
			Name:         d.Name,
			Description:  d.Description,
			InputSchema:  d.InputSchema,
			OutputSchema: d.OutputSchema,
			Annotations: &ToolAnnotations{
				ReadOnlyHint:    d.ReadOnly,
				DestructiveHint: d.Destructive,
				IdempotentHint:  d.Idempotent,
			},
		})
	}

	return JSONRPCSuccess(c, req.ID, ToolsListResult{Tools: defs})
}

// handleToolsCall handles the tools/call method.
//
// Requires a valid session ID in the Mcp-Session-Id header. An unknown
// tool name is a protocol error per the MCP spec; every other failure
// comes back as a tool result with isError set, matching the stdio
// transport.
func (s *Server) handleToolsCall(c echo.Context, req JSONRPCRequest) error {
	if err := s.validateSession(c); err != nil {
		return jsonrpcSessionError(c, req.ID, err)
	}

	var params ToolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return JSONRPCErrorWithContext(c, req.ID, InvalidParams, err)
	}
	if params.Name == "" {
		return JSONRPCErrorWithContext(c, req.ID, InvalidParams,
			fmt.Errorf("tool name is required"))
	}

	outcome := s.bridge.CallTool(c.Request().Context(), params.Name, params.Arguments)
	if outcome.Err != nil && outcome.Err.Kind == tools.KindUnknownTool {
		return JSONRPCErrorWithContext(c, req.ID, InvalidParams, outcome.Err)
	}

	result := ToolsCallResult{
		Content:           []ContentBlock{{Type: "text", Text: outcome.Text()}},
		StructuredContent: outcome.Structured,
		IsError:           outcome.IsError(),
	}

	return JSONRPCSuccess(c, req.ID, result)
}

// validateSession checks that a valid session ID is provided in the
// request header.
//
// Returns an error if:
//   - the Mcp-Session-Id header is missing
//   - the session ID is not found in the store
func (s *Server) validateSession(c echo.Context) error {
	sessionID := c.Request().Header.Get("Mcp-Session-Id")
	if sessionID == "" {
		return fmt.Errorf("missing Mcp-Session-Id header")
	}

	if s.sessions == nil {
		return fmt.Errorf("session store not initialized")
	}

	if s.sessions.Get(sessionID) == nil {
		return fmt.Errorf("invalid session ID: %s", sessionID)
	}

	return nil
}

// jsonrpcSessionError reports a missing or invalid session as HTTP 400
// with a JSON-RPC error body.
func jsonrpcSessionError(c echo.Context, id any, err error) error {
	return c.JSON(http.StatusBadRequest, JSONRPCError{
		JSONRPC: "2.0",
		ID:      id,
		Error: &ErrorDetail{
			Code:    InvalidRequest,
			Message: "Bad Request: valid session ID required",
			Data:    map[string]any{"details": err.Error()},
		},
	})
}
