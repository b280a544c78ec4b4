// Package health provides health check implementations for external dependencies.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// CheckTimeout bounds how long a single dependency check may take.
const CheckTimeout = 3 * time.Second

// Checker reports whether a dependency is reachable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the JSON body returned by the health endpoint.
type Status struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler returns an HTTP handler that runs the named checkers and
// reports 200 when all pass, 503 otherwise. Checks run sequentially
// with a per-check timeout.
func Handler(checkers map[string]Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := Status{
			Status: "ok",
			Checks: make(map[string]string, len(checkers)),
		}

		code := http.StatusOK
		for name, checker := range checkers {
			ctx, cancel := context.WithTimeout(r.Context(), CheckTimeout)
			err := checker.HealthCheck(ctx)
			cancel()
			if err != nil {
				slog.WarnContext(r.Context(), "health check failed", "check", name, "error", err)
				status.Status = "degraded"
				status.Checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.ErrorContext(r.Context(), "failed to write health response", "error", err)
		}
	}
}
