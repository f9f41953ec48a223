package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if payload["ok"] != true {
		t.Fatalf("expected ok=true, got %v", payload)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a request id header")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected CORS origin %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "abc123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("all checks pass", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) {
			d.Checks = map[string]Check{
				"database": func(context.Context) error { return nil },
			}
		})
		rr, payload := env.do(t, http.MethodGet, "/api/ready", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		if payload["status"] != "ready" {
			t.Fatalf("expected ready, got %v", payload["status"])
		}
	})

	t.Run("failing check", func(t *testing.T) {
		env := newTestEnv(t, func(d *Deps) {
			d.Checks = map[string]Check{
				"database": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("connection refused") },
			}
		})
		rr, payload := env.do(t, http.MethodGet, "/api/ready", "", nil)
		if rr.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rr.Code)
		}
		checks, _ := payload["checks"].(map[string]any)
		redis, _ := checks["redis"].(map[string]any)
		if redis["status"] != "error" || redis["error"] != "connection refused" {
			t.Fatalf("unexpected redis check %v", redis)
		}
		database, _ := checks["database"].(map[string]any)
		if database["status"] != "ok" {
			t.Fatalf("unexpected database check %v", database)
		}
	})
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/nope", "", nil)
	if rr.Code != http.StatusNotFound || payload["code"] != "NOT_FOUND" {
		t.Fatalf("expected 404 NOT_FOUND, got %d %v", rr.Code, payload)
	}
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t)
	rr, payload := env.do(t, http.MethodGet, "/api/catalog", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	plans, _ := payload["plans"].([]any)
	if len(plans) != 2 {
		t.Fatalf("expected two plans, got %v", payload["plans"])
	}
	if payload["steps"] != float64(6) {
		t.Fatalf("expected 6 steps, got %v", payload["steps"])
	}
	if payload["hostedGuidance"] != false {
		t.Fatalf("expected rules-only guidance, got %v", payload["hostedGuidance"])
	}
}
