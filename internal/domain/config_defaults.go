package domain

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"dario.cat/mergo"
)

func DefaultConfig() *Config {
	return &Config{
		Validator: DefaultValidatorConfig(),
		Compiler:  DefaultCompilerConfig(),
		Simulator: DefaultSimulatorConfig(),
		Services:  DefaultServicesConfig(),
		History:   DefaultHistoryConfig(),
	}
}

func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		MaxRecommendedNodes: 10,
	}
}

func DefaultCompilerConfig() CompilerConfig {
	return CompilerConfig{
		DefaultStrategy:    "branch-map",
		DefaultName:        "Untitled workflow",
		DefaultModel:       "gpt-4o-mini",
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   1024,
	}
}

func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		Traversal:          TraversalPerPath,
		PromptLatency:      150 * time.Millisecond,
		ToolLatency:        80 * time.Millisecond,
		IntegrationLatency: 100 * time.Millisecond,
		TokensPerWord:      1,
	}
}

func DefaultServicesConfig() ServicesConfig {
	return ServicesConfig{
		Integrations: map[string]IntegrationConfig{
			"slack":   {BaseURL: "https://slack.com/api", AuthScheme: "Bearer"},
			"github":  {BaseURL: "https://api.github.com", AuthScheme: "Bearer"},
			"notion":  {BaseURL: "https://api.notion.com/v1", AuthScheme: "Bearer"},
			"gmail":   {BaseURL: "https://gmail.googleapis.com/gmail/v1", AuthScheme: "Bearer"},
			"hubspot": {BaseURL: "https://api.hubapi.com", AuthScheme: "Bearer"},
			"airtable": {
				BaseURL:    "https://api.airtable.com/v0",
				AuthScheme: "Bearer",
			},
		},
	}
}

func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		Backend:  HistoryMemory,
		MaxItems: 100,
	}
}

// ApplyDefaults fills every zero-valued field from DefaultConfig. Explicit
// values are kept; integration maps gain the default entries they lack.
func (c *Config) ApplyDefaults() error {
	if err := mergo.Merge(c, DefaultConfig()); err != nil {
		return fmt.Errorf("apply config defaults: %w", err)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Validator.MaxRecommendedNodes < 0 {
		return fmt.Errorf("%w: validator.max_recommended_nodes must not be negative", ErrInvalidInput)
	}
	switch c.Simulator.Traversal {
	case "", TraversalPerPath, TraversalWorklist:
	default:
		return fmt.Errorf("%w: unknown simulator traversal %q", ErrInvalidInput, c.Simulator.Traversal)
	}
	switch c.History.Backend {
	case "", HistoryNone, HistoryMemory:
	case HistoryBadger:
		if c.History.Dir == "" && !c.History.InMemory {
			return fmt.Errorf("%w: history.dir is required for the badger backend", ErrInvalidInput)
		}
	case HistorySQLite:
		if c.History.Dir == "" && c.History.DSN == "" && !c.History.InMemory {
			return fmt.Errorf("%w: history.dir or history.dsn is required for the sqlite backend", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown history backend %q", ErrInvalidInput, c.History.Backend)
	}
	return nil
}

func NewConfigFromSimple(logger *slog.Logger) *Config {
	config := DefaultConfig()
	config.Logger = logger
	if logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return config
}

func (c *Config) WithTraversal(mode TraversalMode) *Config {
	c.Simulator.Traversal = mode
	return c
}

func (c *Config) WithoutLatency() *Config {
	c.Simulator.DisableLatency = true
	return c
}

func (c *Config) WithIntegration(id, baseURL, authScheme string) *Config {
	if c.Services.Integrations == nil {
		c.Services.Integrations = make(map[string]IntegrationConfig)
	}
	c.Services.Integrations[id] = IntegrationConfig{BaseURL: baseURL, AuthScheme: authScheme}
	return c
}

func (c *Config) WithCredential(integrationID, token string) *Config {
	if c.Services.Credentials == nil {
		c.Services.Credentials = make(map[string]string)
	}
	c.Services.Credentials[integrationID] = token
	return c
}

func (c *Config) WithHistory(backend HistoryBackend, dir string) *Config {
	c.History.Backend = backend
	c.History.Dir = dir
	return c
}
