// Package server provides the HTTP listener for the shelfd daemon.
//
// This package owns the echo instance and its lifecycle: common
// middleware, graceful startup and context-aware shutdown. Routes come
// from elsewhere; callers register them on Echo() before Start.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds HTTP listener configuration.
type Config struct {
	// Port to listen on.
	Port int

	// ShutdownTimeout bounds graceful shutdown once the context is
	// cancelled.
	ShutdownTimeout time.Duration

	// RateLimit is the per-client request rate in requests per second.
	// Zero disables rate limiting.
	RateLimit float64
}

// DefaultConfig returns the default listener configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:            5000,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server represents the HTTP server.
type Server struct {
	config *Config
	echo   *echo.Echo
	logger *zap.Logger
}

// NewServer creates a new HTTP server with the given configuration.
//
// The server includes:
//   - Echo router with panic recovery and request IDs
//   - Structured request logging
//   - Permissive CORS for browser clients
//   - Optional per-client rate limiting
//   - Graceful shutdown support
//
// Example:
//
//	srv := server.NewServer(nil, logger)
//	srv.Echo().GET("/ping", pingHandler)
//	if err := srv.Start(ctx); err != http.ErrServerClosed {
//	    log.Fatal(err)
//	}
func NewServer(cfg *Config, logger *zap.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return uuid.New().String()
		},
	}))
	e.Use(middleware.CORS())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}
	e.Use(requestLogger(logger))

	return &Server{
		config: cfg,
		echo:   e,
		logger: logger,
	}
}

// requestLogger logs one line per request with the request ID assigned
// by the RequestID middleware.
func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	}
}

// Echo returns the underlying Echo instance for registering routes.
//
// Example:
//
//	srv := server.NewServer(cfg, logger)
//	rest.NewServer(srv.Echo(), store, publisher, logger).RegisterRoutes()
//	mcp.NewServer(srv.Echo(), bridge, logger).RegisterRoutes()
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server and blocks until the context is
// cancelled. When the context ends, the server performs graceful
// shutdown bounded by the configured timeout.
//
// Returns http.ErrServerClosed on graceful shutdown, or any other
// error encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))

	errCh := make(chan error, 1)

	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.ShutdownTimeout,
		)
		defer cancel()

		s.logger.Info("shutting down http server")
		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return http.ErrServerClosed
	}
}
