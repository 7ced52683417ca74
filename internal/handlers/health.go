package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthChecker creates a new health checker. checks maps a dependency name
// (database, redis, queue) to its probe; nil probes are skipped.
func NewHealthChecker(checks map[string]CheckFunc) *HealthChecker {
	filtered := make(map[string]CheckFunc, len(checks))
	for name, fn := range checks {
		if fn != nil {
			filtered[name] = fn
		}
	}
	return &HealthChecker{checks: filtered, timeout: 5 * time.Second}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for _, result := range response.Checks {
			if result != "healthy" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.checks[name](checkCtx)
		cancel()
		if err != nil {
			results[name] = "unhealthy: " + err.Error()
			continue
		}
		results[name] = "healthy"
	}
	return results
}
