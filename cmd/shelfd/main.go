// Shelfd is the book catalog daemon.
//
// By default it serves the REST API, the MCP endpoint, the catalog
// event stream and Prometheus metrics on a single HTTP listener. With
// --stdio it serves MCP on stdin/stdout instead, for clients that
// spawn the server as a subprocess.
//
// Configuration is loaded from ~/.config/shelfd/config.yaml and
// SHELFD_* environment variables. See internal/config for details.
//
// Usage:
//
//	# Start the HTTP daemon with defaults
//	shelfd
//
//	# Configure via environment
//	SHELFD_SERVER_PORT=8080 SHELFD_EVENTS_ENABLED=true shelfd
//
//	# Serve MCP over stdio
//	shelfd --stdio
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/shelfd/internal/catalog"
	"github.com/fyrsmithlabs/shelfd/internal/config"
	resthttp "github.com/fyrsmithlabs/shelfd/internal/http"
	"github.com/fyrsmithlabs/shelfd/internal/logging"
	"github.com/fyrsmithlabs/shelfd/internal/mcp"
	"github.com/fyrsmithlabs/shelfd/internal/telemetry"
	"github.com/fyrsmithlabs/shelfd/pkg/events"
	mcphttp "github.com/fyrsmithlabs/shelfd/pkg/mcp"
	"github.com/fyrsmithlabs/shelfd/pkg/server"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	stdioMode  = flag.Bool("stdio", false, "serve MCP on stdin/stdout instead of HTTP")
	configPath = flag.String("config", "", "path to config file (default ~/.config/shelfd/config.yaml)")
)

func main() {
	flag.Parse()
	args := flag.Args()

	// Handle subcommands
	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  shelfd           Start the catalog daemon\n")
			fmt.Fprintf(os.Stderr, "  shelfd --stdio   Serve MCP on stdin/stdout\n")
			fmt.Fprintf(os.Stderr, "  shelfd version   Show version information\n")
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	run := runDaemon
	if *stdioMode {
		run = runStdio
	}

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("shelfd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// runDaemon starts the HTTP daemon and blocks until the context is
// cancelled.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes logger and telemetry
//  3. Connects to the event broker when events are enabled
//  4. Creates the catalog store and the tool bridge
//  5. Registers the REST, MCP, event stream and metrics routes
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
//
// Returns http.ErrServerClosed on graceful shutdown.
func runDaemon(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info(ctx, "starting shelfd",
		zap.Int("port", cfg.Server.Port),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout.Duration()),
		zap.Bool("events_enabled", cfg.Events.Enabled))

	tel, err := telemetry.New(ctx, &cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.ShutdownTimeout.Duration())
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry shutdown failed", zap.Error(err))
		}
	}()

	publisher, eventsPub, err := initPublisher(cfg, logger)
	if err != nil {
		return err
	}
	if eventsPub != nil {
		defer eventsPub.Close()
		logger.Info(ctx, "connected to event broker", zap.String("url", cfg.Events.URL))
	}

	store := catalog.NewStore()
	bridge, err := mcp.NewBridge(store, logger, publisher)
	if err != nil {
		return fmt.Errorf("failed to create tool bridge: %w", err)
	}

	srv := server.NewServer(&server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout.Duration(),
		RateLimit:       cfg.Server.RateLimit,
	}, logger.Underlying())

	// Propagate the request ID into the request context so handler
	// logs carry it.
	srv.Echo().Use(requestIDContext)

	httpMetrics := resthttp.NewHTTPMetrics(logger)
	srv.Echo().Use(httpMetrics.MetricsMiddleware())

	restServer, err := resthttp.NewServer(srv.Echo(), store, publisher, logger)
	if err != nil {
		return fmt.Errorf("failed to create REST server: %w", err)
	}
	restServer.RegisterRoutes()

	mcpServer, err := mcphttp.NewServer(srv.Echo(), bridge, logger.Underlying())
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	mcpServer.RegisterRoutes()

	// The event stream needs a broker connection, so the route only
	// exists when events are enabled.
	if eventsPub != nil {
		srv.Echo().GET("/api/v1/books/events", func(c echo.Context) error {
			return events.HandleSSE(c, eventsPub)
		})
	}

	// Register metrics endpoint
	srv.Echo().GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("mcp_prefix", "/mcp"),
		zap.String("metrics_endpoint", "/metrics"))

	// Start server (blocks until context cancellation)
	return srv.Start(ctx)
}

// runStdio serves MCP on stdin/stdout until the context is cancelled
// or the client disconnects. Logs go to stderr; stdout belongs to the
// protocol.
func runStdio(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewStderr(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	publisher, eventsPub, err := initPublisher(cfg, logger)
	if err != nil {
		return err
	}
	if eventsPub != nil {
		defer eventsPub.Close()
	}

	bridge, err := mcp.NewBridge(catalog.NewStore(), logger, publisher)
	if err != nil {
		return fmt.Errorf("failed to create tool bridge: %w", err)
	}

	stdioServer, err := mcp.NewServer(&mcp.Config{
		Name:    mcp.ServerName,
		Version: mcp.ServerVersion,
		Logger:  logger,
	}, bridge)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	return stdioServer.Run(ctx)
}

// initPublisher connects to the event broker when events are enabled.
// The first return value is nil when they are not, which disables
// publishing throughout.
func initPublisher(cfg *config.Config, logger *logging.Logger) (catalog.Publisher, *events.Publisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil, nil
	}

	eventsPub, err := events.NewPublisher(&events.Config{
		URL:            cfg.Events.URL,
		AuthToken:      cfg.Events.AuthToken.Value(),
		ConnectTimeout: cfg.Events.ConnectTimeout.Duration(),
		Name:           mcp.ServerName,
	}, logger.Underlying())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to event broker: %w", err)
	}

	return eventsAdapter{pub: eventsPub}, eventsPub, nil
}

// eventsAdapter bridges the catalog's publisher interface to the NATS
// publisher, which carries its own wire types.
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

// requestIDContext copies the request ID assigned by the RequestID
// middleware into the request context, where the logging package picks
// it up.
func requestIDContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
			ctx := logging.WithRequestID(c.Request().Context(), rid)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}
