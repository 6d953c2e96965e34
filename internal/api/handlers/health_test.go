package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.cfg.OpenAIApiKey = "sk-test"

	c, w := newTestContext(t)
	c.Request = httptest.NewRequest("GET", "/health", nil)
	h.HealthCheck(c)

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Services["database"] != "healthy" {
		t.Errorf("database = %q", resp.Services["database"])
	}
	if resp.Services["redis"] != "disabled" {
		t.Errorf("redis = %q, want disabled without a client", resp.Services["redis"])
	}
	if resp.Services["gpt"] != "configured" {
		t.Errorf("gpt = %q", resp.Services["gpt"])
	}
}

func TestHealthCheck_DegradedOnDatabaseFailure(t *testing.T) {
	h, deps := newTestHandler(t)
	deps.store.pingErr = errors.New("connection refused")

	c, w := newTestContext(t)
	c.Request = httptest.NewRequest("GET", "/health", nil)
	h.HealthCheck(c)

	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if resp.Services["database"] != "unhealthy" {
		t.Errorf("database = %q", resp.Services["database"])
	}
}
