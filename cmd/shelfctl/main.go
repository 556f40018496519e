// Package main implements the shelfctl CLI for operations against the shelfd catalog server.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the shelfd HTTP server
	serverURL string
	// requestTimeout bounds every request to the server
	requestTimeout time.Duration
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "shelfctl",
	Short: "CLI for shelfd catalog operations",
	Long: `shelfctl is a command-line interface for the shelfd catalog server.
It provides commands for adding, finding, and deleting books, plus an
interactive terminal browser for the whole catalog.

Defaults for --server and --timeout can be set in
~/.config/shelfctl/config.toml:

  server = "http://localhost:5000"
  timeout = "10s"`,
	Version: version,
}

func init() {
	defaults := resolveDefaults()
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaults.server, "shelfd server URL")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", defaults.timeout, "Timeout for server requests")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check shelfd server health",
	Long: `Check the health status of the shelfd HTTP server.

Examples:
  # Check health
  shelfctl health

  # Check health on a different server
  shelfctl health --server http://localhost:8080`,
	RunE: runHealth,
}

// statusCmd reports server status and catalog counts
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show shelfd server status and catalog counts",
	Long: `Show the shelfd server status, version, and catalog counts.

Examples:
  # Show status
  shelfctl status

  # Output as JSON
  shelfctl status --json`,
	RunE: runStatus,
}

// HealthResponse matches internal/http/server.go HealthResponse
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusResponse matches internal/http/types.go StatusResponse
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts matches internal/http/types.go StatusCounts
type StatusCounts struct {
	Books int `json:"books"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	health, err := fetchHealth()
	if err != nil {
		return err
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	fmt.Printf("Server Version: %s\n", health.Version)
	fmt.Printf("Server URL: %s\n", serverURL)

	return nil
}

// runStatus handles the status command
func runStatus(cmd *cobra.Command, args []string) error {
	status, err := fetchStatus()
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(status)
	}

	fmt.Printf("Server Status: %s\n", status.Status)
	fmt.Printf("Server Version: %s\n", status.Version)
	fmt.Printf("Books: %d\n", status.Counts.Books)

	return nil
}

// fetchHealth queries the health endpoint
func fetchHealth() (*HealthResponse, error) {
	url := fmt.Sprintf("%s/health", serverURL)

	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &health, nil
}

// fetchStatus queries the status endpoint
func fetchStatus() (*StatusResponse, error) {
	url := fmt.Sprintf("%s/api/v1/status", serverURL)

	client := &http.Client{
		Timeout: requestTimeout,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &status, nil
}
