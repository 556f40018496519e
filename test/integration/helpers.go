// Package integration exercises the fully composed shelfd daemon: the
// REST API, the MCP endpoint and the event stream wired together over
// one shared catalog, the same way cmd/shelfd assembles them.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	resthttp "github.com/fyrsmithlabs/shelfd/internal/http"
	"github.com/fyrsmithlabs/shelfd/internal/logging"
	toolbridge "github.com/fyrsmithlabs/shelfd/internal/mcp"
	"github.com/fyrsmithlabs/shelfd/pkg/events"
	mcphttp "github.com/fyrsmithlabs/shelfd/pkg/mcp"
	"github.com/fyrsmithlabs/shelfd/pkg/server"
)

// testDaemon is one in-process daemon with every surface registered.
type testDaemon struct {
	URL       string
	Store     *catalog.Store
	Publisher *events.Publisher
}

// startTestBroker starts an embedded NATS server for the event stream.
func startTestBroker(t *testing.T) *natsserver.Server {
	t.Helper()

	broker, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go broker.Start()

	if !broker.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		broker.Shutdown()
		broker.WaitForShutdown()
	})

	return broker
}

// startTestDaemon composes the daemon the way cmd/shelfd does: one
// catalog store shared by the REST handlers and the tool bridge, change
// events on an embedded broker, and the SSE route alongside both.
func startTestDaemon(t *testing.T) *testDaemon {
	t.Helper()

	broker := startTestBroker(t)

	cfg := events.DefaultConfig()
	cfg.URL = broker.ClientURL()
	cfg.Name = "integration-test"

	pub, err := events.NewPublisher(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pub.Close)

	logger := logging.NewNop()
	store := catalog.NewStore()
	publisher := eventsAdapter{pub: pub}

	bridge, err := toolbridge.NewBridge(store, logger, publisher)
	require.NoError(t, err)

	srv := server.NewServer(server.DefaultConfig(), zap.NewNop())

	restServer, err := resthttp.NewServer(srv.Echo(), store, publisher, logger)
	require.NoError(t, err)
	restServer.RegisterRoutes()

	mcpServer, err := mcphttp.NewServer(srv.Echo(), bridge, zap.NewNop())
	require.NoError(t, err)
	mcpServer.RegisterRoutes()

	srv.Echo().GET("/api/v1/books/events", func(c echo.Context) error {
		return events.HandleSSE(c, pub)
	})

	ts := httptest.NewServer(srv.Echo())
	t.Cleanup(ts.Close)

	return &testDaemon{
		URL:       ts.URL,
		Store:     store,
		Publisher: pub,
	}
}

// eventsAdapter bridges the catalog's publisher interface to the NATS
// publisher, mirroring the daemon's wiring.
type eventsAdapter struct {
	pub *events.Publisher
}

func (a eventsAdapter) BookCreated(ctx context.Context, book catalog.Book) {
	a.pub.BookCreated(ctx, events.Book{
		ID:       book.ID,
		Title:    book.Title,
		Author:   book.Author,
		Category: book.Category,
	})
}

func (a eventsAdapter) BookDeleted(ctx context.Context, id int) {
	a.pub.BookDeleted(ctx, id)
}

// doJSON sends one request with an optional JSON body and returns the
// response alongside its fully read body.
func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

// rpcEnvelope is the JSON-RPC 2.0 response frame.
type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mcpCall sends one JSON-RPC request to POST /mcp with the headers the
// streamable HTTP spec requires.
func mcpCall(t *testing.T, baseURL, sessionID string, id int, method string, params any) (rpcEnvelope, *http.Response) {
	t.Helper()

	body := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
	}
	if params != nil {
		body["params"] = params
	}

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, baseURL+"/mcp", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope rpcEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	return envelope, resp
}

// initializeSession performs the MCP handshake and returns the session
// ID issued by the server.
func initializeSession(t *testing.T, baseURL string) string {
	t.Helper()

	envelope, resp := mcpCall(t, baseURL, "", 1, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    "integration-test",
			"version": "0.1.0",
		},
	})
	require.Nil(t, envelope.Error, "initialize should succeed")

	sessionID := resp.Header.Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID, "initialize should issue a session ID")

	return sessionID
}

// callTool invokes one tool in an established session and returns the
// decoded tools/call result.
func callTool(t *testing.T, baseURL, sessionID string, id int, name string, args map[string]any) toolCallResult {
	t.Helper()

	envelope, _ := mcpCall(t, baseURL, sessionID, id, "tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})
	require.Nil(t, envelope.Error, "tools/call %s should not be a protocol error", name)

	var result toolCallResult
	require.NoError(t, json.Unmarshal(envelope.Result, &result))

	return result
}

// toolCallResult mirrors the tools/call result payload.
type toolCallResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StructuredContent json.RawMessage `json:"structuredContent"`
	IsError           bool            `json:"isError"`
}

// receiveEvent reads one event from a watch channel with a timeout.
func receiveEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()

	select {
	case event := <-ch:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for catalog event")
		return events.Event{}
	}
}
