// Package health provides readiness state tracking and HTTP health check
// handlers for the http transport.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// probeTimeout bounds the engine round trip performed by the readiness probe.
const probeTimeout = 10 * time.Second

// ProbeFunc checks reachability of the remote engine, typically by listing
// databases in the default catalog.
type ProbeFunc func(ctx context.Context) error

// Checker tracks readiness and optionally verifies engine reachability.
// It is safe for concurrent use.
type Checker struct {
	probe ProbeFunc
}

// NewChecker creates a Checker. probe may be nil, in which case readiness
// reports ok without touching the engine.
func NewChecker(probe ProbeFunc) *Checker {
	return &Checker{probe: probe}
}

// healthResponse is the JSON body returned by health endpoints.
type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// LivenessHandler returns an http.HandlerFunc that always responds 200 OK.
// Use this for K8s livenessProbe (/healthz).
func (*Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadinessHandler returns an http.HandlerFunc that responds 200 when the
// engine probe succeeds and 503 when it fails.
// Use this for K8s readinessProbe (/readyz).
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.probe == nil {
			writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		if err := c.probe(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v healthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
