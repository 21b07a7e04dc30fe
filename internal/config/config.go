// Package config loads runtime configuration and the provider-model
// catalog. Runtime settings come from a YAML/TOML/JSON file plus
// SUMMARYCMP_* environment overrides; the catalog is a plain YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"summarycmp/infrastructure/provider"
)

// ProviderConfig holds the credentials and limits for one provider.
type ProviderConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	// RequestsPerSecond enables the outbound rate limiter when > 0.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
}

// Config is the full runtime configuration.
type Config struct {
	DatabasePath string `mapstructure:"database_path" validate:"required"`
	CatalogPath  string `mapstructure:"catalog_path"`
	LogLevel     string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// Load reads configuration from path (optional; environment variables alone
// are enough to run) and validates it. Environment variables use the
// SUMMARYCMP_ prefix with underscores for nesting, e.g.
// SUMMARYCMP_PROVIDERS_GEMINI_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("database_path", "summarycmp.db")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("SUMMARYCMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already knows about, so the
	// provider credential keys must be bound explicitly or an env-only
	// setup would silently yield unconfigured adapters.
	for _, key := range provider.FactoryKeys() {
		for _, field := range []string{"api_key", "endpoint", "requests_per_second"} {
			if err := v.BindEnv("providers." + key + "." + field); err != nil {
				return nil, fmt.Errorf("binding env for provider %s: %w", key, err)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Provider returns the configuration for key, zero-valued when absent. A
// missing provider section is not an error: the adapter reports itself
// unconfigured and every call yields a failed result.
func (c *Config) Provider(key string) ProviderConfig {
	return c.Providers[key]
}
