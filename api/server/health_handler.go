// health_handler.go - HTTP handlers for /status, /nodehealth, /health/liveness, /health/readiness
package server

import (
	"encoding/json"
	"net/http"
)

// StatusResponse represents the JSON structure for the /status endpoint
type StatusResponse struct {
	Status      string      `json:"status"`
	Uptime      int64       `json:"uptime_seconds"`
	RecordCount int         `json:"record_count"`
	Version     string      `json:"version"`
	APIVersion  string      `json:"api_version"`
	Metrics     NodeMetrics `json:"metrics"`
}

// LivenessResponse for /health/liveness
type LivenessResponse struct {
	Alive bool `json:"alive"`
}

// ReadinessResponse for /health/readiness
type ReadinessResponse struct {
	Ready bool `json:"ready"`
}

// NodeHealthResponse is the response type for the /nodehealth endpoint
type NodeHealthResponse struct {
	Status  string      `json:"status"`
	Metrics NodeMetrics `json:"metrics"`
}

// NodeVersion returns the current node software version.
func NodeVersion() string {
	return "v0.1.0"
}

// APIVersion returns the current API version.
func APIVersion() string {
	return "v1"
}

// nodeStatus derives a coarse health label. The store is the only hard
// dependency of a single ledger node.
func (s *Server) nodeStatus() string {
	if s.store == nil {
		return "initializing"
	}
	if _, err := s.store.RecordCount(); err != nil {
		return "degraded"
	}
	return "healthy"
}

// HandleStatus responds to /status with node status
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	metrics := s.GetNodeMetrics()
	resp := StatusResponse{
		Status:      s.nodeStatus(),
		Uptime:      metrics.UptimeSeconds,
		RecordCount: metrics.RecordCount,
		Version:     NodeVersion(),
		APIVersion:  APIVersion(),
		Metrics:     metrics,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleLiveness responds to /health/liveness
func (s *Server) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	resp := LivenessResponse{Alive: s.store != nil}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleReadiness responds to /health/readiness
func (s *Server) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := ReadinessResponse{Ready: s.nodeStatus() == "healthy"}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleNodeHealth responds to /nodehealth (summary health)
func (s *Server) HandleNodeHealth(w http.ResponseWriter, r *http.Request) {
	resp := NodeHealthResponse{
		Status:  s.nodeStatus(),
		Metrics: s.GetNodeMetrics(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
