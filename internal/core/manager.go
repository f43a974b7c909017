package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/bodies"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/compiler"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/condition"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/generator"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/resolver"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/simulator"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/storage"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/validator"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

const Version = "0.3.0"

type Manager struct {
	validator ports.ValidatorPort
	resolver  ports.ResolverPort
	compilers map[string]ports.CompilerPort
	bodies    ports.BodyRegistryPort
	simulator ports.SimulatorPort
	history   ports.ExecutionStorePort

	config *domain.Config
	logger *ports.StructuredLogger

	mu       sync.RWMutex
	handlers []func(domain.StepEvent)
	closed   bool
}

type options struct {
	text        ports.TextGeneratorPort
	credentials ports.CredentialPort
	history     ports.ExecutionStorePort
	simulator   []simulator.Option
}

type Option func(*options)

// WithTextGenerator replaces the simulated text generator used by prompt
// nodes.
func WithTextGenerator(text ports.TextGeneratorPort) Option {
	return func(o *options) {
		o.text = text
	}
}

func WithCredentials(credentials ports.CredentialPort) Option {
	return func(o *options) {
		o.credentials = credentials
	}
}

// WithHistoryStore uses store instead of the backend named in the config.
func WithHistoryStore(store ports.ExecutionStorePort) Option {
	return func(o *options) {
		o.history = store
	}
}

func WithSimulatorOptions(opts ...simulator.Option) Option {
	return func(o *options) {
		o.simulator = append(o.simulator, opts...)
	}
}

func New(logger *slog.Logger, opts ...Option) (*Manager, error) {
	return NewWithConfig(domain.NewConfigFromSimple(logger), opts...)
}

func NewWithConfig(config *domain.Config, opts ...Option) (*Manager, error) {
	if config == nil {
		config = domain.DefaultConfig()
	}
	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		config.Logger.Error("invalid configuration", "error", err)
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logger := config.Logger
	graphValidator := validator.New(config.Validator, logger)
	graphResolver := resolver.New()
	scripts := generator.New(generator.OptionsFromConfig(config.Compiler))
	pipeline := compiler.NewPipeline(graphValidator, graphResolver, scripts, logger)

	registry, err := bodies.NewDefaultRegistry(bodies.Dependencies{
		Simulator:   config.Simulator,
		Compiler:    config.Compiler,
		Text:        o.text,
		Credentials: o.credentials,
		Evaluator:   condition.NewEvaluator(logger),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build node bodies: %w", err)
	}

	history := o.history
	if history == nil {
		history, err = storage.New(config.History, logger)
		if err != nil {
			return nil, fmt.Errorf("open execution history: %w", err)
		}
	}

	m := &Manager{
		validator: graphValidator,
		resolver:  graphResolver,
		compilers: make(map[string]ports.CompilerPort),
		bodies:    registry,
		history:   history,
		config:    config,
		logger:    ports.NewStructuredLogger(logger, "flowgraph", Version),
	}
	for _, c := range []ports.CompilerPort{compiler.NewBranchMap(pipeline), compiler.NewModuleList(pipeline)} {
		m.compilers[c.Strategy()] = c
	}

	simOpts := append([]simulator.Option{
		simulator.WithServices(config.Services),
		simulator.WithObserver(m.dispatch),
	}, o.simulator...)
	m.simulator = simulator.New(graphValidator, graphResolver, registry, config.Simulator, logger, simOpts...)

	m.logger.Debug("manager created",
		"traversal", string(config.Simulator.Traversal),
		"history", string(config.History.Backend),
		"strategies", m.Strategies(),
	)
	return m, nil
}

func (m *Manager) Config() domain.Config {
	return *m.config
}

// Strategies lists the registered compiler strategy names in sorted order.
func (m *Manager) Strategies() []string {
	names := make([]string, 0, len(m.compilers))
	for name := range m.compilers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Validate(graph domain.Graph) domain.ValidationResult {
	op := m.logger.WithOperation("validate", uuid.NewString())
	result := m.validator.Validate(graph)
	op.Complete("graph validated",
		"nodes", len(graph.Nodes),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)
	return result
}

// Compile turns graph into an artifact with the named strategy. An empty
// strategy or name falls back to the configured defaults. Validation problems
// are reported in the result, not as an error.
func (m *Manager) Compile(graph domain.Graph, strategy, name string) (*domain.CompileResult, error) {
	if strategy == "" {
		strategy = m.config.Compiler.DefaultStrategy
	}
	if name == "" {
		name = graph.Name
	}
	if name == "" {
		name = m.config.Compiler.DefaultName
	}

	c, ok := m.compilers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownStrategy, strategy, m.Strategies())
	}

	op := m.logger.WithOperation("compile", uuid.NewString())
	result := c.Compile(graph, name)
	if !result.Succeeded() {
		op.Fail("graph compilation rejected", fmt.Errorf("%d error(s)", len(result.Errors)),
			ports.FieldStrategy, strategy,
			ports.FieldGraphName, name,
		)
		return result, nil
	}
	op.Complete("graph compiled",
		ports.FieldStrategy, strategy,
		ports.FieldGraphName, name,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

// Simulate runs graph in-process and records the trace in the execution
// history. Node failures are part of the returned trace; the error reports
// a closed manager or a history write failure.
func (m *Manager) Simulate(ctx context.Context, graph domain.Graph, input interface{}) (*domain.Execution, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, domain.ErrStoreClosed
	}

	execution := m.simulator.Run(ctx, graph, input)
	log := m.logger.WithExecution(execution.ID, execution.GraphName)
	log.Info("simulation recorded",
		ports.FieldStatus, string(execution.Status),
		"steps", len(execution.Steps),
	)

	if m.history == nil {
		return execution, nil
	}
	// The trace is stored even when the caller's context is already done.
	if err := m.history.Save(context.WithoutCancel(ctx), execution); err != nil {
		log.Error("failed to store execution", ports.FieldError, err)
		return execution, fmt.Errorf("store execution %s: %w", execution.ID, err)
	}
	return execution, nil
}

func (m *Manager) Execution(ctx context.Context, id string) (*domain.Execution, error) {
	if m.history == nil {
		return nil, fmt.Errorf("%w: %s (history disabled)", domain.ErrExecutionNotFound, id)
	}
	return m.history.Get(ctx, id)
}

// Executions returns up to limit stored traces, newest first. A limit of zero
// returns all of them.
func (m *Manager) Executions(ctx context.Context, limit int) ([]*domain.Execution, error) {
	if m.history == nil {
		return []*domain.Execution{}, nil
	}
	return m.history.List(ctx, limit)
}

// ReplaceBody swaps the simulated body of a node type.
func (m *Manager) ReplaceBody(nodeType domain.NodeType, body ports.NodeBody) error {
	if !nodeType.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, nodeType)
	}
	if body == nil {
		return fmt.Errorf("%w: body for %s is nil", domain.ErrInvalidInput, nodeType)
	}
	m.bodies.ReplaceBody(nodeType, body)
	return nil
}

// OnStep registers handler for step start and finish events of every
// simulation.
func (m *Manager) OnStep(handler func(domain.StepEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

func (m *Manager) dispatch(event domain.StepEvent) {
	m.mu.RLock()
	handlers := make([]func(domain.StepEvent), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	if m.history != nil {
		if err := m.history.Close(); err != nil {
			return fmt.Errorf("close execution history: %w", err)
		}
	}
	m.logger.Debug("manager closed")
	return nil
}
