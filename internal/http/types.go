// Package http provides the REST surface for the shelfd catalog.
package http

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts contains count information for catalog resources.
type StatusCounts struct {
	Books int `json:"books"`
}
