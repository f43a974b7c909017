package domain

import (
	"log/slog"
	"time"
)

type Config struct {
	Logger *slog.Logger `json:"-"`

	Validator ValidatorConfig `json:"validator"`
	Compiler  CompilerConfig  `json:"compiler"`
	Simulator SimulatorConfig `json:"simulator"`
	Services  ServicesConfig  `json:"services"`
	History   HistoryConfig   `json:"history"`
}

type ValidatorConfig struct {
	MaxRecommendedNodes int `json:"max_recommended_nodes"`
}

type CompilerConfig struct {
	DefaultStrategy    string  `json:"default_strategy"`
	DefaultName        string  `json:"default_name"`
	DefaultModel       string  `json:"default_model"`
	DefaultTemperature float64 `json:"default_temperature"`
	DefaultMaxTokens   int     `json:"default_max_tokens"`
}

type TraversalMode string

const (
	// TraversalPerPath descends recursively per outgoing edge; a node reached
	// through several paths runs once per path.
	TraversalPerPath TraversalMode = "per-path"
	// TraversalWorklist runs every node once, after all of its predecessors,
	// with their outputs merged.
	TraversalWorklist TraversalMode = "worklist"
)

type SimulatorConfig struct {
	Traversal          TraversalMode `json:"traversal"`
	DisableLatency     bool          `json:"disable_latency"`
	PromptLatency      time.Duration `json:"prompt_latency"`
	ToolLatency        time.Duration `json:"tool_latency"`
	IntegrationLatency time.Duration `json:"integration_latency"`
	TokensPerWord      int           `json:"tokens_per_word"`
}

// LatencyFor returns the simulated I/O delay for a node type.
func (c SimulatorConfig) LatencyFor(t NodeType) time.Duration {
	if c.DisableLatency {
		return 0
	}
	switch t {
	case NodeTypePrompt:
		return c.PromptLatency
	case NodeTypeTool:
		return c.ToolLatency
	case NodeTypeIntegration:
		return c.IntegrationLatency
	}
	return 0
}

// ServicesConfig is the environment specific configuration handed to node
// bodies at run time. It is never compiled into artifacts.
type ServicesConfig struct {
	Integrations map[string]IntegrationConfig `json:"integrations"`
	Credentials  map[string]string            `json:"credentials,omitempty"`
	// RequireCredentials makes integration steps fail when no credential is
	// configured instead of using a simulated token.
	RequireCredentials bool `json:"require_credentials"`
}

type IntegrationConfig struct {
	BaseURL    string `json:"base_url"`
	AuthScheme string `json:"auth_scheme"`
}

// Integration returns the configuration for id, or false when unknown.
func (c ServicesConfig) Integration(id string) (IntegrationConfig, bool) {
	cfg, ok := c.Integrations[id]
	return cfg, ok
}

type HistoryBackend string

const (
	HistoryNone   HistoryBackend = "none"
	HistoryMemory HistoryBackend = "memory"
	HistoryBadger HistoryBackend = "badger"
	HistorySQLite HistoryBackend = "sqlite"
)

type HistoryConfig struct {
	Backend  HistoryBackend `json:"backend"`
	Dir      string         `json:"dir,omitempty"`
	// DSN overrides Dir for the sqlite backend.
	DSN      string         `json:"dsn,omitempty"`
	InMemory bool           `json:"in_memory,omitempty"`
	MaxItems int            `json:"max_items"`
}
