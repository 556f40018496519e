// Package testdata provides utilities for generating sample metrics data
// to test Grafana dashboards without using real production data.
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics for testing dashboards. Names and label sets mirror what the
// server exports through the OTLP pipeline, so dashboard queries written
// against this generator keep working against the real service.
var (
	// HTTP server metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfd_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfd_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfd_http_response_size_bytes",
			Help:    "HTTP response body size in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"method", "endpoint", "status"},
	)
	httpActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfd_http_active_requests",
			Help: "Number of currently active HTTP requests",
		},
	)

	// MCP tool metrics
	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfd_mcp_tool_invocations_total",
			Help: "Total number of MCP tool invocations",
		},
		[]string{"tool"},
	)
	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfd_mcp_tool_duration_seconds",
			Help:    "Duration of MCP tool invocations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"tool"},
	)
	toolErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfd_mcp_tool_errors_total",
			Help: "Total number of MCP tool errors",
		},
		[]string{"tool", "reason"},
	)
	toolActiveRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfd_mcp_tool_active_requests",
			Help: "Number of currently active MCP tool requests",
		},
		[]string{"tool"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		// HTTP
		httpRequestsTotal,
		httpRequestDuration,
		httpResponseSize,
		httpActiveRequests,
		// MCP tools
		toolInvocations,
		toolDuration,
		toolErrors,
		toolActiveRequests,
	)
}

// route pairs a method with the registered endpoint pattern it can hit,
// so generated samples never mix method/endpoint combinations the
// router would reject.
type route struct {
	method   string
	endpoint string
}

var routes = []route{
	{"GET", "/health"},
	{"GET", "/api/v1/status"},
	{"GET", "/api/v1/books"},
	{"POST", "/api/v1/books"},
	{"GET", "/api/v1/books/id/:id"},
	{"DELETE", "/api/v1/books/id/:id"},
	{"GET", "/api/v1/books/search"},
	{"GET", "/api/v1/books/events"},
	{"POST", "/mcp"},
	{"DELETE", "/mcp"},
}

var tools = []string{"create_book", "get_book", "delete_book", "list_books", "search_books"}

var errorReasons = []string{"validation_error", "not_found", "unknown_tool", "invalid_arguments", "internal_error"}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	// Generate initial sample data
	generateSampleData()

	// Start background goroutine to continuously generate data
	ctx, cancel := context.WithCancel(context.Background())
	go generateContinuousData(ctx)

	// Serve metrics
	http.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		cancel()
		server.Shutdown(context.Background())
	}()

	fmt.Printf("Sample metrics server running on http://localhost:%s/metrics\n", port)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println("\nTo use with Prometheus, add this to prometheus.yml:")
	fmt.Printf("  - job_name: 'shelfd-test'\n    static_configs:\n      - targets: ['localhost:%s']\n", port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func generateSampleData() {
	// Generate HTTP traffic over every route
	for i := 0; i < 300; i++ {
		r := routes[rand.Intn(len(routes))]
		observeRequest(r, randomStatus(r))
	}
	httpActiveRequests.Set(float64(rand.Intn(5)))

	// Generate tool invocations
	for i := 0; i < 120; i++ {
		tool := randomChoice(tools)
		toolInvocations.WithLabelValues(tool).Inc()
		toolDuration.WithLabelValues(tool).Observe(rand.Float64() * 0.05)
	}
	for i := 0; i < 10; i++ {
		toolErrors.WithLabelValues(randomChoice(tools), randomChoice(errorReasons)).Inc()
	}
	for _, tool := range tools {
		toolActiveRequests.WithLabelValues(tool).Set(float64(rand.Intn(3)))
	}
}

func generateContinuousData(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Add some random activity
			if rand.Float64() > 0.2 {
				r := routes[rand.Intn(len(routes))]
				observeRequest(r, randomStatus(r))
			}
			if rand.Float64() > 0.4 {
				tool := randomChoice(tools)
				toolInvocations.WithLabelValues(tool).Inc()
				toolDuration.WithLabelValues(tool).Observe(rand.Float64() * 0.05)
			}
			if rand.Float64() > 0.9 {
				toolErrors.WithLabelValues(randomChoice(tools), randomChoice(errorReasons)).Inc()
			}

			// Update gauges
			httpActiveRequests.Set(float64(rand.Intn(5)))
			for _, tool := range tools {
				toolActiveRequests.WithLabelValues(tool).Set(float64(rand.Intn(3)))
			}
		}
	}
}

func observeRequest(r route, status string) {
	httpRequestsTotal.WithLabelValues(r.method, r.endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(r.method, r.endpoint, status).Observe(rand.Float64() * 0.1)
	httpResponseSize.WithLabelValues(r.method, r.endpoint, status).Observe(float64(rand.Intn(4000) + 50))
}

// randomStatus picks a plausible status for the route: creations mostly
// 201 with occasional validation failures, id lookups and deletes mostly
// 200 with occasional 404s.
func randomStatus(r route) string {
	switch {
	case r.method == "POST" && r.endpoint == "/api/v1/books":
		if rand.Float64() > 0.85 {
			return "400"
		}
		return "201"
	case r.endpoint == "/api/v1/books/id/:id":
		if rand.Float64() > 0.85 {
			return "404"
		}
		return "200"
	default:
		if rand.Float64() > 0.97 {
			return "500"
		}
		return "200"
	}
}

func randomChoice(choices []string) string {
	return choices[rand.Intn(len(choices))]
}
