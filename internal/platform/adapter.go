// Package platform provides the integration adapters that retrieve
// platform-reported post metrics, plus the fetcher that wraps them with
// circuit breaking, rate limiting, and backoff.
package platform

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/P4R1H/affiliate-platform/internal/model"
)

// ErrUnknownIntegration is returned when no adapter is registered for a name.
var ErrUnknownIntegration = eris.New("unknown integration")

// Adapter retrieves platform-reported metrics for a single post URL.
// Implementations signal failure kind via CallError; any metric an
// integration does not expose is returned as nil.
type Adapter interface {
	Name() string
	FetchPostMetrics(ctx context.Context, url string) (model.PlatformMetrics, error)
}

// Registry maps integration names to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds or replaces the adapter for its name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get returns the adapter for name, or ErrUnknownIntegration.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, eris.Wrapf(ErrUnknownIntegration, "%q", name)
	}
	return a, nil
}

// Names returns registered integration names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
