// Package logging provides structured, context-aware logging for shelfd.
//
// The Logger wraps Zap and enriches every entry with correlation fields
// pulled from the context: OpenTelemetry trace/span ids, the HTTP request
// id, and the MCP session id. Components receive a Logger (or derive one
// with Named) instead of using package-level globals.
//
// # Usage
//
// Create a logger from config:
//
//	logger, err := logging.New(cfg.Logging)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info(ctx, "catalog updated", zap.Int("book_id", id))
//
// In stdio transport mode stdout carries protocol frames, so use
// NewStderr to keep log output off the protocol stream.
package logging
