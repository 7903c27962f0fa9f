package server

import (
	"context"
	"fmt"

	"llm-router/internal/llm-router/catalog"
	"llm-router/internal/llm-router/config"
	"llm-router/internal/llm-router/service/llm"
)

// NewProviders builds a client for every enabled provider.
func NewProviders(ctx context.Context, cfg *config.Config) ([]llm.Provider, error) {
	var providers []llm.Provider

	for _, name := range cfg.EnabledProviders() {
		p, _ := cfg.Provider(name)

		switch name {
		case catalog.ProviderOpenAI:
			providers = append(providers, llm.NewOpenAIProvider(p.APIKey, p.BaseURL, p.Timeout))
		case catalog.ProviderGroq:
			providers = append(providers, llm.NewGroqProvider(p.APIKey, p.BaseURL, p.Timeout))
		case catalog.ProviderOpenRouter:
			providers = append(providers, llm.NewOpenRouterProvider(p.APIKey, p.BaseURL, p.Timeout, p.Headers))
		case catalog.ProviderAnthropic:
			providers = append(providers, llm.NewAnthropicProvider(p.APIKey, p.BaseURL, p.Timeout))
		case catalog.ProviderGoogle:
			gemini, err := llm.NewGeminiProvider(ctx, p.APIKey, p.BaseURL, p.Timeout)
			if err != nil {
				return nil, err
			}
			providers = append(providers, gemini)
		default:
			return nil, fmt.Errorf("unsupported provider: %s", name)
		}
	}

	return providers, nil
}

// NewCatalog applies configured overrides to the built-in catalog and keeps
// only models whose provider is enabled.
func NewCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	overrides, err := cfg.Routing.CatalogOverrides()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.NewDefault().WithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	return cat.Filter(
		func(m catalog.ModelDescriptor) bool {
			return cfg.IsProviderEnabled(m.ProviderName)
		},
	), nil
}
