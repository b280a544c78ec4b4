package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubChecker struct {
	err error
}

func (s stubChecker) HealthCheck(ctx context.Context) error {
	return s.err
}

func TestHandler_AllHealthy(t *testing.T) {
	handler := Handler(map[string]Checker{
		"database": stubChecker{},
		"redis":    stubChecker{},
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if status.Status != "ok" {
		t.Errorf("status = %q, want ok", status.Status)
	}
	if status.Checks["database"] != "ok" || status.Checks["redis"] != "ok" {
		t.Errorf("checks = %v", status.Checks)
	}
}

func TestHandler_DegradedOnFailure(t *testing.T) {
	handler := Handler(map[string]Checker{
		"database": stubChecker{},
		"redis":    stubChecker{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}

	var status Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if status.Status != "degraded" {
		t.Errorf("status = %q, want degraded", status.Status)
	}
	if status.Checks["database"] != "ok" {
		t.Errorf("database check = %q, want ok", status.Checks["database"])
	}
	if status.Checks["redis"] != "connection refused" {
		t.Errorf("redis check = %q", status.Checks["redis"])
	}
}

func TestHandler_NoCheckers(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(nil)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
