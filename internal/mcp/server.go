package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fyrsmithlabs/shelfd/internal/logging"
)

// ServerName and ServerVersion identify this implementation to MCP
// clients and on the REST health endpoint.
const (
	ServerName    = "shelfd"
	ServerVersion = "0.1.0"
)

// Server serves the tool bridge over the official MCP SDK's stdio
// transport.
type Server struct {
	mcp    *mcpsdk.Server
	bridge *Bridge
	logger *logging.Logger
}

// Config configures the stdio MCP server.
type Config struct {
	// Name is the implementation name announced during initialize.
	Name string

	// Version is the implementation version announced during
	// initialize.
	Version string

	// Logger for structured logging. In stdio mode this must write to
	// stderr; stdout belongs to the protocol.
	Logger *logging.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    ServerName,
		Version: ServerVersion,
		Logger:  logging.NewNop(),
	}
}

// NewServer creates a stdio MCP server over the given bridge.
func NewServer(cfg *Config, bridge *Bridge) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	mcpServer := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		bridge: bridge,
		logger: cfg.Logger,
	}
	s.registerTools()

	return s, nil
}

// registerTools registers every bridge tool with the SDK server. The
// hand-written input schemas go out as-is; the SDK leaves argument
// validation to the bridge.
func (s *Server) registerTools() {
	for _, op := range s.bridge.ListTools() {
		s.mcp.AddTool(&mcpsdk.Tool{
			Name:        op.Name,
			Description: op.Description,
			InputSchema: op.InputSchema,
		}, s.toolHandler(op.Name))
	}
}

// toolHandler adapts one bridge operation to the SDK callback shape.
// The text block carries the summary line plus the structured payload,
// so clients that ignore structuredContent still see the full result.
func (s *Server) toolHandler(name string) mcpsdk.ToolHandler {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var raw json.RawMessage
		if req.Params != nil {
			raw = req.Params.Arguments
		}

		outcome := s.bridge.CallTool(ctx, name, raw)

		return &mcpsdk.CallToolResult{
			Content:           []mcpsdk.Content{&mcpsdk.TextContent{Text: outcome.Text()}},
			StructuredContent: outcome.Structured,
			IsError:           outcome.IsError(),
		}, nil
	}
}

// Run serves MCP on stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info(ctx, "starting MCP server on stdio transport")
	if err := s.mcp.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		return fmt.Errorf("server run failed: %w", err)
	}
	return nil
}
