package provider

import (
	"fmt"
	"sort"
)

// Registry is the immutable adapter lookup keyed by provider key. It is
// built once during process start and handed to the orchestrator and the
// leaderboard aggregator by reference; it is never mutated afterwards, so
// concurrent reads need no locking.
type Registry struct {
	providers map[string]SummaryProvider
}

// NewRegistry builds a registry from already-constructed adapters.
func NewRegistry(providers ...SummaryProvider) *Registry {
	lookup := make(map[string]SummaryProvider, len(providers))
	for _, p := range providers {
		lookup[p.Key()] = p
	}
	return &Registry{providers: lookup}
}

// NewRegistryFromConfig constructs every registered adapter, looking up its
// configuration by provider key. Keys absent from configs produce adapters
// without credentials, which report IsConfigured() == false.
func NewRegistryFromConfig(configs map[string]ClientConfig) (*Registry, error) {
	providers := make([]SummaryProvider, 0, len(providerFactories))
	for _, key := range FactoryKeys() {
		adapter, err := New(key, configs[key])
		if err != nil {
			return nil, fmt.Errorf("build provider registry: %w", err)
		}
		providers = append(providers, adapter)
	}
	return NewRegistry(providers...), nil
}

// Get resolves the adapter registered under key.
func (r *Registry) Get(key string) (SummaryProvider, bool) {
	p, ok := r.providers[key]
	return p, ok
}

// Keys returns every registered provider key in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.providers))
	for key := range r.providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Configured returns the keys of adapters whose credentials are present,
// in sorted order.
func (r *Registry) Configured() []string {
	var keys []string
	for key, p := range r.providers {
		if p.IsConfigured() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
