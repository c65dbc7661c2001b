// Package server provides the health endpoints and graceful shutdown of
// the provider daemon.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
)

// HealthPaths are the routes served by HealthServer.Handler.
var HealthPaths = []string{"/health", "/ready", "/live", "/healthz", "/readyz", "/livez"}

// HealthCheck represents a single health check.
type HealthCheck struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is the response from health endpoints.
type HealthResponse struct {
	Status    HealthStatus  `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version,omitempty"`
	Checks    []HealthCheck `json:"checks,omitempty"`
}

// HealthChecker is a function that performs a health check.
type HealthChecker func(ctx context.Context) HealthCheck

// HealthServer provides HTTP health check endpoints.
type HealthServer struct {
	mu           sync.RWMutex
	checks       map[string]HealthChecker
	version      string
	ready        bool
	live         bool
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// HealthConfig configures the health server.
type HealthConfig struct {
	Version string
}

// NewHealthServer creates a new health server. It starts live and not
// ready.
func NewHealthServer(config *HealthConfig) *HealthServer {
	version := ""
	if config != nil {
		version = config.Version
	}

	return &HealthServer{
		checks:       make(map[string]HealthChecker),
		version:      version,
		live:         true,
		shutdownChan: make(chan struct{}),
	}
}

// RegisterCheck adds a health check, replacing one with the same name.
func (s *HealthServer) RegisterCheck(name string, checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = checker
}

// SetReady marks the server as ready to accept host sessions.
func (s *HealthServer) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// SetLive marks the server as live (or not).
func (s *HealthServer) SetLive(live bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = live
}

// Handler returns an http.Handler for the health endpoints.
func (s *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/livez", s.handleLive)
	return mux
}

// ListenAndServe serves the health endpoints on addr until Shutdown.
func (s *HealthServer) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		<-s.shutdownChan
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the health listener. It is safe to call more than once.
func (s *HealthServer) Shutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdownChan) })
}

// handleHealth runs every check, in name order.
func (s *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	checks := make(map[string]HealthChecker, len(s.checks))
	for k, v := range s.checks {
		names = append(names, k)
		checks[k] = v
	}
	version := s.version
	s.mu.RUnlock()
	sort.Strings(names)

	response := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
		Checks:    make([]HealthCheck, 0, len(names)),
	}

	for _, name := range names {
		check := checks[name](ctx)
		check.Name = name
		response.Checks = append(response.Checks, check)

		if check.Status == HealthStatusUnhealthy {
			response.Status = HealthStatusUnhealthy
		} else if check.Status == HealthStatusDegraded && response.Status == HealthStatusHealthy {
			response.Status = HealthStatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, statusCode, response)
}

func (s *HealthServer) handleReady(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	ready := s.ready
	s.mu.RUnlock()
	writeProbe(w, ready)
}

func (s *HealthServer) handleLive(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	live := s.live
	s.mu.RUnlock()
	writeProbe(w, live)
}

func writeProbe(w http.ResponseWriter, ok bool) {
	response := HealthResponse{Status: HealthStatusHealthy, Timestamp: time.Now().UTC()}
	if !ok {
		response.Status = HealthStatusUnhealthy
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// SelectorHealthChecker probes sel with a character frame script under
// the default settings. A selector that returns nothing, or no base
// payload, is unhealthy.
func SelectorHealthChecker(sel typedefs.Selector) HealthChecker {
	probe := typedefs.RequestContext{
		ScriptingLanguage: "hscript",
		ObjectType:        string(typedefs.ObjectTypeCharacter),
	}
	return func(ctx context.Context) HealthCheck {
		res := sel.Select(probe, settings.Defaults())
		names := res.Names()
		if len(names) == 0 || names[0] != typedefs.FragmentBase {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: "Selector returned no base declarations",
			}
		}
		return HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "Selector OK",
			Details: map[string]string{
				"fragments": strconv.Itoa(len(names)),
				"bytes":     strconv.Itoa(len(res.Contents())),
			},
		}
	}
}

// PayloadHealthChecker verifies that every embedded declaration fragment
// is present and non-empty.
func PayloadHealthChecker() HealthChecker {
	return func(ctx context.Context) HealthCheck {
		var missing []string
		for _, name := range typedefs.FragmentNames() {
			if p, ok := typedefs.Payload(name); !ok || p == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: "Missing declaration payloads",
				Details: map[string]string{"missing": strconv.Itoa(len(missing))},
			}
		}
		return HealthCheck{Status: HealthStatusHealthy, Message: "Payloads OK"}
	}
}

// SessionsHealthChecker reports the number of connected host sessions.
// Zero sessions is degraded: the provider is up but no editor is using it.
func SessionsHealthChecker(count func() int) HealthChecker {
	return func(ctx context.Context) HealthCheck {
		n := count()
		check := HealthCheck{
			Status:  HealthStatusHealthy,
			Message: "Host connected",
			Details: map[string]string{"sessions": strconv.Itoa(n)},
		}
		if n == 0 {
			check.Status = HealthStatusDegraded
			check.Message = "No host sessions"
		}
		return check
	}
}
