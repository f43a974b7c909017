package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	config := &Config{
		Compiler: CompilerConfig{DefaultStrategy: "module-list"},
		Services: ServicesConfig{
			Integrations: map[string]IntegrationConfig{
				"jira": {BaseURL: "https://jira.example.com", AuthScheme: "Basic"},
			},
		},
	}

	require.NoError(t, config.ApplyDefaults())

	assert.Equal(t, "module-list", config.Compiler.DefaultStrategy)
	assert.Equal(t, "Untitled workflow", config.Compiler.DefaultName)
	assert.Equal(t, 10, config.Validator.MaxRecommendedNodes)
	assert.Equal(t, TraversalPerPath, config.Simulator.Traversal)
	assert.Equal(t, HistoryMemory, config.History.Backend)
	assert.Equal(t, 100, config.History.MaxItems)
	assert.NotNil(t, config.Logger)

	assert.Contains(t, config.Services.Integrations, "jira")
	assert.Contains(t, config.Services.Integrations, "slack")
	assert.Equal(t, "Basic", config.Services.Integrations["jira"].AuthScheme)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "history disabled", mutate: func(c *Config) { c.History.Backend = HistoryNone }},
		{name: "badger with dir", mutate: func(c *Config) { c.WithHistory(HistoryBadger, "/tmp/history") }},
		{name: "badger in memory", mutate: func(c *Config) { c.History.Backend = HistoryBadger; c.History.InMemory = true }},
		{name: "sqlite with dsn", mutate: func(c *Config) { c.History.Backend = HistorySQLite; c.History.DSN = "file:h.db" }},
		{
			name:    "negative node limit",
			mutate:  func(c *Config) { c.Validator.MaxRecommendedNodes = -1 },
			wantErr: "max_recommended_nodes",
		},
		{
			name:    "unknown traversal",
			mutate:  func(c *Config) { c.WithTraversal("random") },
			wantErr: `unknown simulator traversal "random"`,
		},
		{
			name:    "badger without dir",
			mutate:  func(c *Config) { c.History.Backend = HistoryBadger },
			wantErr: "history.dir is required",
		},
		{
			name:    "sqlite without location",
			mutate:  func(c *Config) { c.History.Backend = HistorySQLite },
			wantErr: "history.dir or history.dsn",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.History.Backend = "redis" },
			wantErr: `unknown history backend "redis"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfigFromSimple(t *testing.T) {
	config := NewConfigFromSimple(nil).
		WithoutLatency().
		WithIntegration("linear", "https://api.linear.app", "Bearer").
		WithCredential("linear", "secret")

	assert.NotNil(t, config.Logger)
	assert.True(t, config.Simulator.DisableLatency)
	assert.Equal(t, "https://api.linear.app", config.Services.Integrations["linear"].BaseURL)
	assert.Equal(t, "secret", config.Services.Credentials["linear"])
	assert.NoError(t, config.Validate())
}
