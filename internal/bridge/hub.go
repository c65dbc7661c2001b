package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/efebarandurmaz/fraytypes/internal/observability"
	"github.com/efebarandurmaz/fraytypes/internal/settings"
)

// Hub tracks the connected host sessions. It implements settings.Notifier
// by broadcasting config.changed to every session.
type Hub struct {
	mu       sync.RWMutex
	sessions map[*session]struct{}
	metrics  *observability.ProviderMetrics
}

// NewHub creates an empty hub. metrics may be nil.
func NewHub(metrics *observability.ProviderMetrics) *Hub {
	return &Hub{sessions: make(map[*session]struct{}), metrics: metrics}
}

func (h *Hub) add(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.HostSessions.Inc()
	}
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	delete(h.sessions, s)
	h.mu.Unlock()
	if ok && h.metrics != nil {
		h.metrics.HostSessions.Dec()
	}
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Broadcast queues env on every session.
func (h *Hub) Broadcast(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		s.push(env)
	}
}

// Notify sends change to connected hosts. With no host connected the
// change is only returned to the HTTP caller.
func (h *Hub) Notify(ctx context.Context, change settings.Change) error {
	env, err := newEnvelope(TypeConfigChanged, requestID(ctx), change)
	if err != nil {
		return fmt.Errorf("encoding config change: %w", err)
	}
	h.Broadcast(env)
	return nil
}

// CloseAll ends every session.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.sessions {
		s.close()
	}
}
