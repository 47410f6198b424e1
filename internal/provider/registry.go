package provider

import (
	"context"
	"sort"
	"sync"

	"study-helper/internal/message"
	"study-helper/internal/settings"
)

// Registry selects the adapter for a provider identifier.
type Registry struct {
	mu       sync.RWMutex
	adapters map[message.Provider]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[message.Provider]Adapter{}}
}

// Register attaches or replaces the adapter of p.
func (r *Registry) Register(p message.Provider, a Adapter) {
	if a == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[p] = a
}

func (r *Registry) Get(p message.Provider) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[p]
	return a, ok
}

// Known returns the registered providers, sorted.
func (r *Registry) Known() []message.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]message.Provider, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Send routes to the adapter of p.
func (r *Registry) Send(ctx context.Context, p message.Provider, req message.Request, cfg settings.Config) message.Result {
	a, ok := r.Get(p)
	if !ok {
		return message.Failure("Unsupported provider %q; known: %v", p, r.Known())
	}
	return a.Send(ctx, req, cfg)
}
