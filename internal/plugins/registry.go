package plugins

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores type-definition providers keyed by scripting language.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p, replacing any provider for the same language.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Language()] = p
}

// Provider returns the provider for lang.
func (r *Registry) Provider(lang string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[lang]
	if !ok {
		return nil, fmt.Errorf("no type definition provider for language %q", lang)
	}
	return p, nil
}

// Languages lists the registered languages, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.providers))
	for lang := range r.providers {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}
