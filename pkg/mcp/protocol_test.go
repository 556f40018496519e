package mcp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	tools "github.com/fyrsmithlabs/shelfd/internal/mcp"
)

const testSessionID = "550e8400-e29b-41d4-a716-446655440000"

// mustMarshal marshals v for test request bodies.
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// newTestServer creates an MCP server over a fresh in-memory catalog.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	bridge, err := tools.NewBridge(catalog.NewStore(), nil, nil)
	require.NoError(t, err)

	server, err := NewServer(echo.New(), bridge, nil)
	require.NoError(t, err)

	return server
}

// seedSession installs a session under a fixed ID.
func seedSession(server *Server, sessionID string) {
	server.sessions.sessions.Store(sessionID, &Session{
		ID:              sessionID,
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
		CreatedAt:       time.Now(),
		LastAccessedAt:  time.Now(),
	})
}

// doMCP runs one JSON-RPC message through handleMCPRequest.
func doMCP(t *testing.T, server *Server, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := server.echo.NewContext(req, rec)

	require.NoError(t, server.handleMCPRequest(c))
	return rec
}

// TestHandleMCPRequest_Initialize tests the initialize method via POST /mcp.
//
// This test verifies:
//   - a session ID is generated and returned in the header
//   - the protocol version is negotiated
//   - server capabilities and info are returned
//   - the Accept header is enforced per the MCP spec
func TestHandleMCPRequest_Initialize(t *testing.T) {
	tests := []struct {
		name           string
		protocolVer    string
		acceptHeader   string
		wantStatusCode int
		wantSessionID  bool
	}{
		{
			name:           "valid initialize request",
			protocolVer:    "2024-11-05",
			acceptHeader:   "application/json, text/event-stream",
			wantStatusCode: http.StatusOK,
			wantSessionID:  true,
		},
		{
			name:           "unsupported protocol version downgrades",
			protocolVer:    "1999-01-01",
			acceptHeader:   "application/json, text/event-stream",
			wantStatusCode: http.StatusOK,
			wantSessionID:  true,
		},
		{
			name:           "missing accept header",
			protocolVer:    "2024-11-05",
			acceptHeader:   "",
			wantStatusCode: http.StatusNotAcceptable,
			wantSessionID:  false,
		},
		{
			name:           "accept header without event-stream",
			protocolVer:    "2024-11-05",
			acceptHeader:   "application/json",
			wantStatusCode: http.StatusNotAcceptable,
			wantSessionID:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			body := mustMarshal(JSONRPCRequest{
				JSONRPC: "2.0",
				ID:      "1",
				Method:  "initialize",
				Params: mustMarshal(InitializeParams{
					ProtocolVersion: tt.protocolVer,
					ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
				}),
			})
			rec := doMCP(t, server, body, map[string]string{"Accept": tt.acceptHeader})

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			sessionID := rec.Header().Get("Mcp-Session-Id")
			if !tt.wantSessionID {
				assert.Empty(t, sessionID)
				return
			}
			require.Len(t, sessionID, 36, "session ID should be a UUID")
			assert.Equal(t, "2024-11-05", rec.Header().Get("Mcp-Protocol-Version"))

			var resp JSONRPCResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "2.0", resp.JSONRPC)
			assert.Equal(t, "1", resp.ID)

			result, ok := resp.Result.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "2024-11-05", result["protocolVersion"])
			assert.Contains(t, result, "capabilities")

			serverInfo, ok := result["serverInfo"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "shelfd", serverInfo["name"])
		})
	}
}

// TestHandleMCPRequest_Ping tests that ping works without a session.
func TestHandleMCPRequest_Ping(t *testing.T) {
	server := newTestServer(t)

	body := []byte(`{"jsonrpc": "2.0", "id": 7, "method": "ping"}`)
	rec := doMCP(t, server, body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp JSONRPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(7), resp.ID)
	assert.Equal(t, map[string]any{}, resp.Result)
}

// TestHandleMCPRequest_Notifications tests that notifications are
// acknowledged with 202 and no body.
func TestHandleMCPRequest_Notifications(t *testing.T) {
	for _, method := range []string{"notifications/initialized", "notifications/cancelled"} {
		t.Run(method, func(t *testing.T) {
			server := newTestServer(t)

			body := mustMarshal(JSONRPCRequest{JSONRPC: "2.0", Method: method})
			rec := doMCP(t, server, body, nil)

			assert.Equal(t, http.StatusAccepted, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

// TestHandleMCPRequest_UnknownMethod tests the method-not-found error.
func TestHandleMCPRequest_UnknownMethod(t *testing.T) {
	server := newTestServer(t)

	body := []byte(`{"jsonrpc": "2.0", "id": "9", "method": "resources/list"}`)
	rec := doMCP(t, server, body, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp JSONRPCError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFound, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "unknown method: resources/list")
}

// TestHandleMCPRequest_ParseError tests malformed JSON handling.
//
// The request id is recovered from the body when it still parses far
// enough, so clients can correlate the error; otherwise it is null.
func TestHandleMCPRequest_ParseError(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantID any
	}{
		{
			name:   "unparseable body loses the id",
			body:   `{"jsonrpc": `,
			wantID: nil,
		},
		{
			name:   "id recovered from a body with a bad method type",
			body:   `{"jsonrpc": "2.0", "id": 7, "method": 123}`,
			wantID: float64(7),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			rec := doMCP(t, server, []byte(tt.body), nil)

			assert.Equal(t, http.StatusOK, rec.Code)

			var resp JSONRPCError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, ParseError, resp.Error.Code)
			assert.Equal(t, tt.wantID, resp.ID)
		})
	}
}

// TestHandleMCPRequest_ToolsList tests the tools/list method.
func TestHandleMCPRequest_ToolsList(t *testing.T) {
	tests := []struct {
		name           string
		sessionID      string
		seed           bool
		wantStatusCode int
	}{
		{
			name:           "valid session",
			sessionID:      testSessionID,
			seed:           true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing session ID",
			sessionID:      "",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown session ID",
			sessionID:      "00000000-0000-0000-0000-000000000000",
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			if tt.seed {
				seedSession(server, tt.sessionID)
			}

			body := []byte(`{"jsonrpc": "2.0", "id": "5", "method": "tools/list"}`)
			headers := map[string]string{}
			if tt.sessionID != "" {
				headers["Mcp-Session-Id"] = tt.sessionID
			}
			rec := doMCP(t, server, body, headers)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantStatusCode != http.StatusOK {
				var errResp JSONRPCError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				require.NotNil(t, errResp.Error)
				assert.Equal(t, InvalidRequest, errResp.Error.Code)
				return
			}

			var resp struct {
				Result ToolsListResult `json:"result"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			names := make([]string, 0, len(resp.Result.Tools))
			for _, def := range resp.Result.Tools {
				names = append(names, def.Name)
			}
			assert.Equal(t, []string{"create_book", "get_book", "delete_book", "list_books", "search_books"}, names)

			for _, def := range resp.Result.Tools {
				assert.NotEmpty(t, def.Description, def.Name)
				assert.NotNil(t, def.InputSchema, def.Name)
				assert.NotNil(t, def.OutputSchema, def.Name)
				require.NotNil(t, def.Annotations, def.Name)
			}

			byName := make(map[string]ToolDefinition, len(resp.Result.Tools))
			for _, def := range resp.Result.Tools {
				byName[def.Name] = def
			}
			assert.True(t, byName["get_book"].Annotations.ReadOnlyHint)
			assert.True(t, byName["delete_book"].Annotations.DestructiveHint)
			assert.True(t, byName["delete_book"].Annotations.IdempotentHint)
			assert.False(t, byName["create_book"].Annotations.ReadOnlyHint)
			assert.False(t, byName["create_book"].Annotations.DestructiveHint)
		})
	}
}

// TestHandleMCPRequest_ToolsCall tests session and routing behavior of
// the tools/call method.
func TestHandleMCPRequest_ToolsCall(t *testing.T) {
	tests := []struct {
		name           string
		params         ToolsCallParams
		sessionID      string
		wantStatusCode int
		wantRPCCode    int // 0 means success
	}{
		{
			name: "valid call",
			params: ToolsCallParams{
				Name:      "list_books",
				Arguments: json.RawMessage(`{}`),
			},
			sessionID:      testSessionID,
			wantStatusCode: http.StatusOK,
		},
		{
			name: "unknown tool is a protocol error",
			params: ToolsCallParams{
				Name:      "publish_book",
				Arguments: json.RawMessage(`{}`),
			},
			sessionID:      testSessionID,
			wantStatusCode: http.StatusOK,
			wantRPCCode:    InvalidParams,
		},
		{
			name: "missing tool name",
			params: ToolsCallParams{
				Arguments: json.RawMessage(`{}`),
			},
			sessionID:      testSessionID,
			wantStatusCode: http.StatusOK,
			wantRPCCode:    InvalidParams,
		},
		{
			name: "missing session",
			params: ToolsCallParams{
				Name:      "list_books",
				Arguments: json.RawMessage(`{}`),
			},
			sessionID:      "",
			wantStatusCode: http.StatusBadRequest,
			wantRPCCode:    InvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			seedSession(server, testSessionID)

			body := mustMarshal(JSONRPCRequest{
				JSONRPC: "2.0",
				ID:      "8",
				Method:  "tools/call",
				Params:  mustMarshal(tt.params),
			})
			headers := map[string]string{}
			if tt.sessionID != "" {
				headers["Mcp-Session-Id"] = tt.sessionID
			}
			rec := doMCP(t, server, body, headers)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			if tt.wantRPCCode != 0 {
				var errResp JSONRPCError
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				require.NotNil(t, errResp.Error)
				assert.Equal(t, tt.wantRPCCode, errResp.Error.Code)
				return
			}

			var resp struct {
				Result ToolsCallResult `json:"result"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Result.IsError)
			require.Len(t, resp.Result.Content, 1)
			assert.Equal(t, "text", resp.Result.Content[0].Type)
		})
	}
}

// TestToolsCall_CreateBook tests the full tools/call result payload for
// a successful mutation.
func TestToolsCall_CreateBook(t *testing.T) {
	server := newTestServer(t)
	seedSession(server, testSessionID)

	body := mustMarshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      "10",
		Method:  "tools/call",
		Params: mustMarshal(ToolsCallParams{
			Name:      "create_book",
			Arguments: json.RawMessage(`{"title": "Dune", "author": "Frank Herbert", "category": "Fiction"}`),
		}),
	})
	rec := doMCP(t, server, body, map[string]string{"Mcp-Session-Id": testSessionID})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Result ToolsCallResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.Result.IsError)
	require.Len(t, resp.Result.Content, 1)
	assert.Contains(t, resp.Result.Content[0].Text, "Added book 1: Dune by Frank Herbert")

	structured, ok := resp.Result.StructuredContent.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), structured["id"])
	assert.Equal(t, "Book added successfully", structured["message"])
}

// TestToolsCall_ToolErrors tests that tool-level failures come back as
// isError results carrying the error taxonomy, not JSON-RPC errors.
func TestToolsCall_ToolErrors(t *testing.T) {
	tests := []struct {
		name        string
		tool        string
		arguments   string
		wantKind    string
		wantMessage string
	}{
		{
			name:        "validation failure",
			tool:        "create_book",
			arguments:   `{"title": "   ", "author": "Frank Herbert"}`,
			wantKind:    "validation_error",
			wantMessage: "validation failed: title must not be empty",
		},
		{
			name:        "invalid argument types",
			tool:        "create_book",
			arguments:   `{"title": 5, "author": true}`,
			wantKind:    "invalid_arguments",
			wantMessage: "invalid arguments: author must be a string; title must be a string",
		},
		{
			name:        "book not found",
			tool:        "get_book",
			arguments:   `{"id": 42}`,
			wantKind:    "not_found",
			wantMessage: "book 42 not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)
			seedSession(server, testSessionID)

			body := mustMarshal(JSONRPCRequest{
				JSONRPC: "2.0",
				ID:      "11",
				Method:  "tools/call",
				Params: mustMarshal(ToolsCallParams{
					Name:      tt.tool,
					Arguments: json.RawMessage(tt.arguments),
				}),
			})
			rec := doMCP(t, server, body, map[string]string{"Mcp-Session-Id": testSessionID})

			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Result ToolsCallResult `json:"result"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

			assert.True(t, resp.Result.IsError)
			require.Len(t, resp.Result.Content, 1)
			assert.Contains(t, resp.Result.Content[0].Text, tt.wantMessage)

			structured, ok := resp.Result.StructuredContent.(map[string]any)
			require.True(t, ok)
			toolErr, ok := structured["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, toolErr["kind"])
			assert.Equal(t, tt.wantMessage, toolErr["message"])
		})
	}
}

// TestSessionStore tests session lifecycle in the store.
func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	session := store.Create(InitializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
	})
	require.NotNil(t, session)
	assert.Len(t, session.ID, 36)
	assert.Equal(t, "2024-11-05", session.ProtocolVersion)
	assert.Equal(t, "test-client", session.ClientInfo.Name)

	got := store.Get(session.ID)
	require.NotNil(t, got)
	assert.Equal(t, session.ID, got.ID)

	assert.Nil(t, store.Get("nonexistent"))

	store.Delete(session.ID)
	assert.Nil(t, store.Get(session.ID))
}

// TestNegotiateProtocolVersion tests version negotiation.
func TestNegotiateProtocolVersion(t *testing.T) {
	assert.Equal(t, "2024-11-05", negotiateProtocolVersion("2024-11-05"))
	assert.Equal(t, "2024-11-05", negotiateProtocolVersion("2030-01-01"))
	assert.Equal(t, "2024-11-05", negotiateProtocolVersion(""))
}

// TestValidateAcceptHeader tests the Accept header check.
func TestValidateAcceptHeader(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"", false},
		{"application/json", false},
		{"text/event-stream", false},
		{"application/json, text/event-stream", true},
		{"text/event-stream, application/json", true},
		{"*/*, application/json, text/event-stream", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validateAcceptHeader(tt.accept), tt.accept)
	}
}
