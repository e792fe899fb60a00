package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// CheckFunc probes one dependency and returns an error when it is unreachable
type CheckFunc func(ctx context.Context) error

// Pinger is satisfied by *sql.DB and the database wrapper
type Pinger interface {
	PingContext(ctx context.Context) error
}

// checkTimeout bounds each dependency probe
const checkTimeout = 5 * time.Second

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]CheckFunc
}

// NewHealthChecker creates a new health checker. A nil db is reported as not configured.
func NewHealthChecker(db Pinger) *HealthChecker {
	h := &HealthChecker{checks: make(map[string]CheckFunc)}
	if db != nil {
		h.checks["database"] = db.PingContext
	} else {
		h.checks["database"] = nil
	}
	return h
}

// WithCheck adds a named check. A nil check is reported as not configured without
// failing the overall status.
func (h *HealthChecker) WithCheck(name string, check CheckFunc) *HealthChecker {
	h.checks[name] = check
	return h
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
		Timestamp: timestamp(),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for _, result := range response.Checks {
			if result != "healthy" && result != "not configured" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}
	}

	writeEnvelope(w, statusCode, response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		check := h.checks[name]
		if check == nil {
			results[name] = "not configured"
			continue
		}
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(checkCtx)
		cancel()
		if err != nil {
			results[name] = "unhealthy: " + truncateMessage(err.Error())
			continue
		}
		results[name] = "healthy"
	}
	return results
}
