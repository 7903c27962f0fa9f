package config

import (
	"fmt"
	"strings"
	"time"

	"llm-router/internal/llm-router/catalog"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	Host        string        `mapstructure:"host"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CORS        CORSConfig    `mapstructure:"cors"`
	Environment string        `mapstructure:"environment"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
}

type ProvidersConfig struct {
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	Groq       ProviderConfig `mapstructure:"groq"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Google     ProviderConfig `mapstructure:"google"`
}

type ProviderConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Headers are sent on every request (OpenRouter attribution).
	Headers map[string]string `mapstructure:"headers"`
}

type RoutingConfig struct {
	DefaultMaxCost      float64       `mapstructure:"default_max_cost"`
	DefaultMaxLatencyMs int           `mapstructure:"default_max_latency_ms"`
	DefaultQuality      string        `mapstructure:"default_quality"`
	DefaultCapabilities []string      `mapstructure:"default_capabilities"`
	Models              []ModelConfig `mapstructure:"models"`
}

// ModelConfig adds a catalog entry or replaces the built-in one of the same
// name. Prices are per 1000 tokens.
type ModelConfig struct {
	Name         string   `mapstructure:"name"`
	Provider     string   `mapstructure:"provider"`
	MaxTokens    int      `mapstructure:"max_tokens"`
	InputPrice   float64  `mapstructure:"input_price"`
	OutputPrice  float64  `mapstructure:"output_price"`
	LatencyMs    int      `mapstructure:"latency_ms"`
	Quality      string   `mapstructure:"quality"`
	Capabilities []string `mapstructure:"capabilities"`
}

type LedgerConfig struct {
	// Driver is "memory" or "sqlite".
	Driver        string `mapstructure:"driver"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
	PruneSchedule string `mapstructure:"prune_schedule"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Format string `mapstructure:"format"`
}

// Load loads the configuration from config files and environment variables
func Load(configPath string) (*Config, error) {
	paths := []string{".", "./config"}
	if configPath != "" {
		paths = append([]string{configPath}, paths...)
	}
	return load("config", paths...)
}

func load(name string, paths ...string) (*Config, error) {
	var config Config

	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	setDefaults(v)

	// Read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout", "60s")
	v.SetDefault("server.environment", "development")

	v.SetDefault("routing.default_quality", "medium")
	v.SetDefault("routing.default_capabilities", []string{string(catalog.CapabilityReasoning)})

	v.SetDefault("ledger.driver", "memory")
	v.SetDefault("ledger.path", "data/ledger.db")
	v.SetDefault("ledger.prune_schedule", "@daily")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "router.log")
	v.SetDefault("logging.format", "json")

	// known keys so AutomaticEnv can override values absent from the file
	for _, p := range providerNames {
		v.SetDefault("providers."+p+".enabled", false)
		v.SetDefault("providers."+p+".api_key", "")
	}
}

var providerNames = []string{
	catalog.ProviderOpenAI,
	catalog.ProviderAnthropic,
	catalog.ProviderGroq,
	catalog.ProviderOpenRouter,
	catalog.ProviderGoogle,
}

// validateConfig performs validation on the configuration
func validateConfig(config *Config) error {
	// Validate server config
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// Validate providers
	enabled := config.EnabledProviders()
	if len(enabled) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	for _, name := range enabled {
		p, _ := config.Provider(name)
		if p.APIKey == "" {
			return fmt.Errorf("%s API key is required when %s is enabled", name, name)
		}
		if p.Timeout < 0 {
			return fmt.Errorf("%s timeout must not be negative", name)
		}
	}

	// Validate routing defaults
	if config.Routing.DefaultMaxCost < 0 {
		return fmt.Errorf("routing.default_max_cost must not be negative")
	}
	if config.Routing.DefaultMaxLatencyMs < 0 {
		return fmt.Errorf("routing.default_max_latency_ms must not be negative")
	}
	if _, _, err := config.Routing.DefaultConstraints(); err != nil {
		return err
	}
	if _, err := config.Routing.CatalogOverrides(); err != nil {
		return err
	}

	// Validate ledger
	switch config.Ledger.Driver {
	case "memory":
	case "sqlite":
		if config.Ledger.Path == "" {
			return fmt.Errorf("ledger.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown ledger driver: %q", config.Ledger.Driver)
	}
	if config.Ledger.RetentionDays < 0 {
		return fmt.Errorf("ledger.retention_days must not be negative")
	}

	return nil
}

// Provider returns the configuration of the named provider.
func (c *Config) Provider(name string) (ProviderConfig, bool) {
	switch name {
	case catalog.ProviderOpenAI:
		return c.Providers.OpenAI, true
	case catalog.ProviderAnthropic:
		return c.Providers.Anthropic, true
	case catalog.ProviderGroq:
		return c.Providers.Groq, true
	case catalog.ProviderOpenRouter:
		return c.Providers.OpenRouter, true
	case catalog.ProviderGoogle:
		return c.Providers.Google, true
	default:
		return ProviderConfig{}, false
	}
}

func (c *Config) IsProviderEnabled(provider string) bool {
	p, _ := c.Provider(provider)
	return p.Enabled
}

// EnabledProviders lists enabled providers in a fixed order.
func (c *Config) EnabledProviders() []string {
	var names []string
	for _, name := range providerNames {
		if c.IsProviderEnabled(name) {
			names = append(names, name)
		}
	}
	return names
}

// DefaultConstraints parses the routing quality floor and capabilities.
func (r RoutingConfig) DefaultConstraints() (catalog.QualityTier, []catalog.Capability, error) {
	tier, err := catalog.ParseQualityTier(r.DefaultQuality)
	if err != nil {
		return tier, nil, fmt.Errorf("routing.default_quality: %w", err)
	}
	return tier, parseCapabilities(r.DefaultCapabilities), nil
}

// CatalogOverrides converts routing.models into catalog entries.
func (r RoutingConfig) CatalogOverrides() ([]catalog.ModelDescriptor, error) {
	overrides := make([]catalog.ModelDescriptor, 0, len(r.Models))
	for i, m := range r.Models {
		tier, err := catalog.ParseQualityTier(m.Quality)
		if err != nil {
			return nil, fmt.Errorf("routing.models[%d] %s: %w", i, m.Name, err)
		}
		overrides = append(
			overrides, catalog.ModelDescriptor{
				ProviderName:                m.Provider,
				ModelName:                   m.Name,
				MaxContextTokens:            m.MaxTokens,
				CostPerThousandInputTokens:  m.InputPrice,
				CostPerThousandOutputTokens: m.OutputPrice,
				ExpectedLatencyMillis:       m.LatencyMs,
				QualityTier:                 tier,
				Capabilities:                parseCapabilities(m.Capabilities),
			},
		)
	}
	// catalog.New applies the remaining entry checks
	if _, err := catalog.New(overrides); err != nil {
		return nil, fmt.Errorf("routing.models: %w", err)
	}
	return overrides, nil
}

func parseCapabilities(names []string) []catalog.Capability {
	caps := make([]catalog.Capability, 0, len(names))
	for _, n := range names {
		caps = append(caps, catalog.Capability(strings.ToLower(strings.TrimSpace(n))))
	}
	return caps
}
