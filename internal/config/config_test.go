package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "summarycmp.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Provider("gemini").APIKey, "missing provider sections are zero-valued, not errors")
}

func TestLoad_FromFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
database_path: /tmp/cmp.db
log_level: debug
providers:
  gemini:
    api_key: g-key
    requests_per_second: 2
  foundry:
    api_key: f-key
    endpoint: https://foundry.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/cmp.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "g-key", cfg.Provider("gemini").APIKey)
	assert.Equal(t, 2.0, cfg.Provider("gemini").RequestsPerSecond)
	assert.Equal(t, "https://foundry.example.com", cfg.Provider("foundry").Endpoint)
}

func TestLoad_EnvironmentOnly(t *testing.T) {
	t.Setenv("SUMMARYCMP_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("SUMMARYCMP_PROVIDERS_GEMINI_API_KEY", "env-gemini-key")
	t.Setenv("SUMMARYCMP_PROVIDERS_FOUNDRY_API_KEY", "env-foundry-key")
	t.Setenv("SUMMARYCMP_PROVIDERS_FOUNDRY_ENDPOINT", "https://foundry.example.com")
	t.Setenv("SUMMARYCMP_PROVIDERS_AZUREOPENAI_REQUESTS_PER_SECOND", "3")

	// No config file at all: env vars must fully configure providers.
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DatabasePath)
	assert.Equal(t, "env-gemini-key", cfg.Provider("gemini").APIKey)
	assert.Equal(t, "env-foundry-key", cfg.Provider("foundry").APIKey)
	assert.Equal(t, "https://foundry.example.com", cfg.Provider("foundry").Endpoint)
	assert.Equal(t, 3.0, cfg.Provider("azureopenai").RequestsPerSecond)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
providers:
  gemini:
    api_key: file-key
`)
	t.Setenv("SUMMARYCMP_PROVIDERS_GEMINI_API_KEY", "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Provider("gemini").APIKey)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeFile(t, "config.yaml", "log_level: loud\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalog(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
models:
  - provider_key: anthropic
    model_id: claude-sonnet-4-5
    display_name: Claude Sonnet 4.5
  - provider_key: gemini
    model_id: gemini-3-flash-preview
    display_name: Gemini 3 Flash
    disabled: true
`)

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Models, 2)

	models := catalog.ProviderModels()
	assert.True(t, models[0].IsEnabled)
	assert.False(t, models[1].IsEnabled, "disabled entries seed as disabled models")
}

func TestLoadCatalog_RejectsIncompleteEntries(t *testing.T) {
	path := writeFile(t, "catalog.yaml", `
models:
  - provider_key: anthropic
    display_name: Missing Model ID
`)

	_, err := LoadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid catalog")
}

func TestDefaultCatalog_CoversEveryProviderKey(t *testing.T) {
	catalog := DefaultCatalog()

	keys := make(map[string]bool)
	for _, model := range catalog.Models {
		keys[model.ProviderKey] = true
	}
	for _, key := range []string{"anthropic", "azureopenai", "gemini", "foundry"} {
		assert.True(t, keys[key], "default catalog should cover %s", key)
	}
}
