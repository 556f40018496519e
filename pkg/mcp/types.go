// Package mcp serves the Model Context Protocol over HTTP.
//
// This package implements the streamable HTTP transport: a single POST
// /mcp endpoint carrying JSON-RPC 2.0 messages. Sessions are created by
// the initialize handshake and tracked via the Mcp-Session-Id header.
// Tool dispatch goes through the same bridge as the stdio transport, so
// both surfaces expose identical tools with identical semantics.
//
// Example usage:
//
//	server, err := mcp.NewServer(echo, bridge, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server.RegisterRoutes()
package mcp

import (
	"encoding/json"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"` // Always "2.0"
	ID      any             `json:"id"`      // Request ID (string, number, or null per JSON-RPC 2.0)
	Method  string          `json:"method"`  // MCP method (initialize, tools/list, tools/call, ...)
	Params  json.RawMessage `json:"params"`  // Method-specific parameters
}

// JSONRPCResponse represents a successful JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string `json:"jsonrpc"` // Always "2.0"
	ID      any    `json:"id"`      // Matches request ID
	Result  any    `json:"result"`  // Method-specific result
}

// JSONRPCError represents an error JSON-RPC 2.0 response.
type JSONRPCError struct {
	JSONRPC string       `json:"jsonrpc"` // Always "2.0"
	ID      any          `json:"id"`      // Matches request ID, null when unknown
	Error   *ErrorDetail `json:"error"`   // Error details with context
}

// ErrorDetail provides error information beyond the JSON-RPC 2.0 spec.
//
// The Data field carries debugging context: the trace ID of the failed
// request, the Go error type, and a timestamp for log correlation.
type ErrorDetail struct {
	Code    int            `json:"code"`    // JSON-RPC error code
	Message string         `json:"message"` // Human-readable message
	Data    map[string]any `json:"data"`    // Debugging context
}

// JSON-RPC 2.0 standard error codes.
const (
	ParseError     = -32700 // Invalid JSON
	InvalidRequest = -32600 // Invalid Request object or session
	MethodNotFound = -32601 // Method doesn't exist
	InvalidParams  = -32602 // Invalid method params or unknown tool
	InternalError  = -32603 // Internal server error
)

// Session represents an MCP protocol session.
//
// Sessions are created during the initialize handshake and tracked via
// the Mcp-Session-Id header on every subsequent request.
type Session struct {
	ID              string     `json:"id"`               // Session UUID
	ProtocolVersion string     `json:"protocol_version"` // Negotiated MCP protocol version
	ClientInfo      ClientInfo `json:"client_info"`      // Client information
	CreatedAt       time.Time  `json:"created_at"`       // Session creation time
	LastAccessedAt  time.Time  `json:"last_accessed_at"` // Last activity timestamp
}

// ClientInfo contains information about the MCP client.
type ClientInfo struct {
	Name    string `json:"name"`    // Client name
	Version string `json:"version"` // Client version
}

// InitializeParams contains parameters for the initialize method.
type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"` // Requested protocol version
	Capabilities    map[string]any `json:"capabilities"`    // Client capabilities
	ClientInfo      ClientInfo     `json:"clientInfo"`      // Client information
}

// InitializeResult contains the result of the initialize method.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"` // Negotiated protocol version
	Capabilities    ServerCapabilities `json:"capabilities"`    // Server capabilities
	ServerInfo      ServerInfo         `json:"serverInfo"`      // Server information
}

// ServerCapabilities describes what the server supports.
type ServerCapabilities struct {
	Tools map[string]any `json:"tools"` // Tool capabilities
}

// ServerInfo contains information about the MCP server.
type ServerInfo struct {
	Name    string `json:"name"`    // Server name
	Version string `json:"version"` // Server version
}

// ToolsCallParams contains parameters for the tools/call method.
//
// Arguments stay raw so the bridge can validate them against the tool's
// declared input schema, exactly as it does for stdio calls.
type ToolsCallParams struct {
	Name      string          `json:"name"`      // Tool name
	Arguments json.RawMessage `json:"arguments"` // Tool-specific arguments
}

// ToolsCallResult is the tools/call result payload.
type ToolsCallResult struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent any            `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// ContentBlock is one piece of tool output.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolsListResult is the tools/list result payload.
type ToolsListResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// ToolDefinition describes one tool for client discovery.
type ToolDefinition struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	InputSchema  *jsonschema.Schema `json:"inputSchema"`
	OutputSchema *jsonschema.Schema `json:"outputSchema,omitempty"`
	Annotations  *ToolAnnotations   `json:"annotations,omitempty"`
}

// ToolAnnotations carries MCP behavior hints for a tool. All three
// hints are always emitted; clients assume destructiveHint is true when
// it is absent.
type ToolAnnotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint"`
	DestructiveHint bool `json:"destructiveHint"`
	IdempotentHint  bool `json:"idempotentHint"`
}
