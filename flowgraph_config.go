package flowgraph

import (
	"log/slog"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type Config = domain.Config

type ValidatorConfig = domain.ValidatorConfig

type CompilerConfig = domain.CompilerConfig

type SimulatorConfig = domain.SimulatorConfig

type ServicesConfig = domain.ServicesConfig

type IntegrationConfig = domain.IntegrationConfig

type HistoryConfig = domain.HistoryConfig

type TraversalMode = domain.TraversalMode

const (
	TraversalPerPath  TraversalMode = domain.TraversalPerPath
	TraversalWorklist TraversalMode = domain.TraversalWorklist
)

type HistoryBackend = domain.HistoryBackend

const (
	HistoryNone   HistoryBackend = domain.HistoryNone
	HistoryMemory HistoryBackend = domain.HistoryMemory
	HistoryBadger HistoryBackend = domain.HistoryBadger
	HistorySQLite HistoryBackend = domain.HistorySQLite
)

func DefaultConfig() *Config {
	return domain.DefaultConfig()
}

func DefaultValidatorConfig() ValidatorConfig {
	return domain.DefaultValidatorConfig()
}

func DefaultCompilerConfig() CompilerConfig {
	return domain.DefaultCompilerConfig()
}

func DefaultSimulatorConfig() SimulatorConfig {
	return domain.DefaultSimulatorConfig()
}

func DefaultServicesConfig() ServicesConfig {
	return domain.DefaultServicesConfig()
}

func DefaultHistoryConfig() HistoryConfig {
	return domain.DefaultHistoryConfig()
}

type ConfigBuilder struct {
	config *Config
}

func NewConfigBuilder(logger *slog.Logger) *ConfigBuilder {
	return &ConfigBuilder{config: domain.NewConfigFromSimple(logger)}
}

func (cb *ConfigBuilder) WithTraversal(mode TraversalMode) *ConfigBuilder {
	cb.config.WithTraversal(mode)
	return cb
}

// WithoutLatency disables the simulated I/O delays of prompt, tool and
// integration nodes.
func (cb *ConfigBuilder) WithoutLatency() *ConfigBuilder {
	cb.config.WithoutLatency()
	return cb
}

func (cb *ConfigBuilder) WithMaxRecommendedNodes(n int) *ConfigBuilder {
	cb.config.Validator.MaxRecommendedNodes = n
	return cb
}

func (cb *ConfigBuilder) WithDefaultStrategy(strategy string) *ConfigBuilder {
	cb.config.Compiler.DefaultStrategy = strategy
	return cb
}

func (cb *ConfigBuilder) WithDefaultModel(model string) *ConfigBuilder {
	cb.config.Compiler.DefaultModel = model
	return cb
}

func (cb *ConfigBuilder) WithIntegration(id, baseURL, authScheme string) *ConfigBuilder {
	cb.config.WithIntegration(id, baseURL, authScheme)
	return cb
}

func (cb *ConfigBuilder) WithCredential(integrationID, token string) *ConfigBuilder {
	cb.config.WithCredential(integrationID, token)
	return cb
}

// RequireCredentials makes integration steps fail when no credential is
// configured for their integration.
func (cb *ConfigBuilder) RequireCredentials() *ConfigBuilder {
	cb.config.Services.RequireCredentials = true
	return cb
}

func (cb *ConfigBuilder) WithHistory(backend HistoryBackend, dir string) *ConfigBuilder {
	cb.config.WithHistory(backend, dir)
	return cb
}

func (cb *ConfigBuilder) WithHistoryLimit(maxItems int) *ConfigBuilder {
	cb.config.History.MaxItems = maxItems
	return cb
}

func (cb *ConfigBuilder) Build() *Config {
	return cb.config
}
