// Package mcp exposes the book catalog as Model Context Protocol tools.
//
// The core of the package is transport-neutral: a Registry declares the
// five catalog operations with hand-written JSON schemas, and a Bridge
// validates arguments against those schemas, dispatches each call to
// the catalog store exactly once, and shapes outcome envelopes. Server
// binds the bridge to the official MCP SDK over stdio; the daemon's
// HTTP JSON-RPC endpoint in pkg/mcp is a second binding over the same
// bridge.
package mcp
