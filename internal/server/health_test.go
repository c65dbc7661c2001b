package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

func getHealth(t *testing.T, s *HealthServer, path string) (int, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return w.Code, resp
}

func TestNewHealthServer(t *testing.T) {
	s := NewHealthServer(&HealthConfig{Version: "1.0.0"})
	if s.version != "1.0.0" {
		t.Fatalf("expected version 1.0.0, got %s", s.version)
	}
	if s.ready {
		t.Fatal("expected not ready initially")
	}
	if !s.live {
		t.Fatal("expected live initially")
	}
}

func TestHealthServer_HandleHealth(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthStatus
		code   int
		status HealthStatus
	}{
		{"no checks", nil, http.StatusOK, HealthStatusHealthy},
		{"all healthy", map[string]HealthStatus{"a": HealthStatusHealthy, "b": HealthStatusHealthy}, http.StatusOK, HealthStatusHealthy},
		{"degraded", map[string]HealthStatus{"a": HealthStatusHealthy, "b": HealthStatusDegraded}, http.StatusOK, HealthStatusDegraded},
		{"unhealthy wins", map[string]HealthStatus{"a": HealthStatusDegraded, "b": HealthStatusUnhealthy}, http.StatusServiceUnavailable, HealthStatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewHealthServer(&HealthConfig{Version: "1.0.0"})
			for name, status := range tt.checks {
				status := status
				s.RegisterCheck(name, func(ctx context.Context) HealthCheck {
					return HealthCheck{Status: status}
				})
			}

			code, resp := getHealth(t, s, "/health")
			if code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, code)
			}
			if resp.Status != tt.status {
				t.Fatalf("expected %s, got %s", tt.status, resp.Status)
			}
			if resp.Version != "1.0.0" {
				t.Fatalf("expected version 1.0.0, got %s", resp.Version)
			}
			if len(resp.Checks) != len(tt.checks) {
				t.Fatalf("expected %d checks, got %d", len(tt.checks), len(resp.Checks))
			}
		})
	}
}

func TestHealthServer_ChecksSortedByName(t *testing.T) {
	s := NewHealthServer(nil)
	for _, name := range []string{"selector", "payloads", "host"} {
		s.RegisterCheck(name, func(ctx context.Context) HealthCheck {
			return HealthCheck{Status: HealthStatusHealthy}
		})
	}

	_, resp := getHealth(t, s, "/health")
	want := []string{"host", "payloads", "selector"}
	for i, c := range resp.Checks {
		if c.Name != want[i] {
			t.Fatalf("check %d = %s, want %s", i, c.Name, want[i])
		}
	}
}

func TestHealthServer_Probes(t *testing.T) {
	s := NewHealthServer(nil)

	if code, _ := getHealth(t, s, "/ready"); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before ready, got %d", code)
	}
	s.SetReady(true)
	for _, path := range []string{"/ready", "/readyz", "/live", "/livez", "/healthz"} {
		if code, _ := getHealth(t, s, path); code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, code)
		}
	}
	s.SetLive(false)
	if code, resp := getHealth(t, s, "/live"); code != http.StatusServiceUnavailable || resp.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy 503, got %d %s", code, resp.Status)
	}
}

func TestHealthServer_ShutdownTwice(t *testing.T) {
	s := NewHealthServer(nil)
	s.Shutdown()
	s.Shutdown()
}

type emptySelector struct{}

func (emptySelector) Select(typedefs.RequestContext, typedefs.FilterConfig) typedefs.Result {
	return typedefs.Result{}
}

func TestSelectorHealthChecker(t *testing.T) {
	if got := SelectorHealthChecker(typedefs.Static{})(context.Background()); got.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s: %s", got.Status, got.Message)
	} else if got.Details["fragments"] == "" {
		t.Fatal("expected fragment count in details")
	}

	if got := SelectorHealthChecker(emptySelector{})(context.Background()); got.Status != HealthStatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", got.Status)
	}
}

func TestPayloadHealthChecker(t *testing.T) {
	if got := PayloadHealthChecker()(context.Background()); got.Status != HealthStatusHealthy {
		t.Fatalf("expected healthy, got %s: %s", got.Status, got.Message)
	}
}

func TestSessionsHealthChecker(t *testing.T) {
	n := 0
	checker := SessionsHealthChecker(func() int { return n })

	if got := checker(context.Background()); got.Status != HealthStatusDegraded {
		t.Fatalf("expected degraded with no sessions, got %s", got.Status)
	}
	n = 2
	got := checker(context.Background())
	if got.Status != HealthStatusHealthy || got.Details["sessions"] != "2" {
		t.Fatalf("unexpected check: %+v", got)
	}
}
