package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"summarycmp/internal/domain"
)

// CatalogModel is one provider-model entry in the catalog file.
type CatalogModel struct {
	ProviderKey string `yaml:"provider_key" validate:"required"`
	ModelID     string `yaml:"model_id" validate:"required"`
	DisplayName string `yaml:"display_name" validate:"required"`
	Disabled    bool   `yaml:"disabled"`
}

// Catalog is the provider-model seed list.
type Catalog struct {
	Models []CatalogModel `yaml:"models" validate:"required,min=1,dive"`
}

// LoadCatalog parses and validates a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	if err := validator.New().Struct(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &catalog, nil
}

// DefaultCatalog is the built-in seed list, used when no catalog file is
// configured.
func DefaultCatalog() *Catalog {
	return &Catalog{Models: []CatalogModel{
		{ProviderKey: "anthropic", ModelID: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5"},
		{ProviderKey: "anthropic", ModelID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5"},
		{ProviderKey: "anthropic", ModelID: "claude-opus-4-5", DisplayName: "Claude Opus 4.5"},
		{ProviderKey: "azureopenai", ModelID: "gpt-5-nano", DisplayName: "GPT-5 Nano"},
		{ProviderKey: "azureopenai", ModelID: "cohere-command-a", DisplayName: "Cohere Command A"},
		{ProviderKey: "gemini", ModelID: "gemini-3-flash-preview", DisplayName: "Gemini 3 Flash"},
		{ProviderKey: "foundry", ModelID: "default", DisplayName: "Microsoft Foundry"},
	}}
}

// ProviderModels converts the catalog into storable entities.
func (c *Catalog) ProviderModels() []domain.ProviderModel {
	models := make([]domain.ProviderModel, len(c.Models))
	for i, m := range c.Models {
		models[i] = domain.ProviderModel{
			ProviderKey: m.ProviderKey,
			ModelID:     m.ModelID,
			DisplayName: m.DisplayName,
			IsEnabled:   !m.Disabled,
		}
	}
	return models
}
