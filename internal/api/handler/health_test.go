package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/pagekeep/diary/internal/core/domain"
)

func TestHealth_Liveness(t *testing.T) {
	c, rec := newContext(t, http.MethodGet, "/health", "", nil, domain.Identity{})

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_Readiness(t *testing.T) {
	ok := Dependency{Name: "mongodb", Check: func(context.Context) error { return nil }}
	down := Dependency{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	t.Run("all up", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/health/ready", "", nil, domain.Identity{})
		if err := NewReadinessHandler(ok).Readiness(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("one down", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/health/ready", "", nil, domain.Identity{})
		if err := NewReadinessHandler(ok, down).Readiness(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}

		var resp readinessResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Status != "degraded" || resp.Dependencies["redis"].Status != "unhealthy" || resp.Dependencies["mongodb"].Status != "ok" {
			t.Fatalf("unexpected payload: %+v", resp)
		}
	})
}
