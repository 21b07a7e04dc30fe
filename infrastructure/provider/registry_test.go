package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(
		&MockProvider{ProviderKey: "alpha", Configured: true},
		&MockProvider{ProviderKey: "beta"},
	)

	alpha, ok := registry.Get("alpha")
	require.True(t, ok, "registered provider should resolve")
	assert.Equal(t, "alpha", alpha.Key())

	_, ok = registry.Get("missing")
	assert.False(t, ok, "unregistered key should not resolve")
}

func TestRegistry_KeysAndConfigured(t *testing.T) {
	registry := NewRegistry(
		&MockProvider{ProviderKey: "beta"},
		&MockProvider{ProviderKey: "alpha", Configured: true},
	)

	assert.Equal(t, []string{"alpha", "beta"}, registry.Keys(), "keys should be sorted")
	assert.Equal(t, []string{"alpha"}, registry.Configured(), "only configured keys should be listed")
}

func TestNewRegistryFromConfig_BuildsEveryFactory(t *testing.T) {
	// No credentials at all: every adapter must still construct, reporting
	// itself unconfigured rather than failing.
	registry, err := NewRegistryFromConfig(nil)
	require.NoError(t, err)

	for _, key := range []string{AnthropicProviderKey, AzureOpenAIProviderKey, GeminiProviderKey, FoundryProviderKey} {
		adapter, ok := registry.Get(key)
		require.True(t, ok, "adapter %s should be registered", key)
		assert.False(t, adapter.IsConfigured(), "adapter %s should be unconfigured without credentials", key)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("no-such-provider", ClientConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

type orderMarkingProvider struct {
	SummaryProvider
	name  string
	order *[]string
}

func (p *orderMarkingProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	*p.order = append(*p.order, p.name)
	return p.SummaryProvider.Summarize(ctx, text, modelID)
}

func TestNew_MiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next SummaryProvider) SummaryProvider {
			return &orderMarkingProvider{SummaryProvider: next, name: name, order: &order}
		}
	}

	adapter, err := New(FoundryProviderKey, ClientConfig{
		Middleware: []Middleware{mark("outer"), mark("inner")},
	})
	require.NoError(t, err)

	adapter.Summarize(context.Background(), "text", "default")
	assert.Equal(t, []string{"outer", "inner"}, order, "first middleware should run outermost")
}
