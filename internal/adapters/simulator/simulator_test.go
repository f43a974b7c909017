package simulator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/bodies"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/condition"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/resolver"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/validator"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/testutil/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	registry *bodies.Registry
	config   domain.SimulatorConfig
	services domain.ServicesConfig
	logger   *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := domain.DefaultSimulatorConfig()
	config.DisableLatency = true

	registry, err := bodies.NewDefaultRegistry(bodies.Dependencies{
		Simulator: config,
		Compiler:  domain.DefaultCompilerConfig(),
		Evaluator: condition.NewEvaluator(logger),
		Logger:    logger,
	})
	require.NoError(t, err)

	return &fixture{
		registry: registry,
		config:   config,
		services: domain.DefaultServicesConfig(),
		logger:   logger,
	}
}

func (f *fixture) simulator(opts ...Option) *Simulator {
	v := validator.New(domain.DefaultValidatorConfig(), f.logger)
	opts = append([]Option{WithServices(f.services)}, opts...)
	return New(v, resolver.New(), f.registry, f.config, f.logger, opts...)
}

func TestRun_PromptSubstitutesInput(t *testing.T) {
	f := newFixture(t)
	graph := workflow.Graph([]domain.Node{workflow.Prompt("greet", "Hello {{name}}")})

	execution := f.simulator().Run(context.Background(), graph, map[string]interface{}{"name": "World"})

	workflow.RequireCompleted(t, execution)
	require.Len(t, execution.Steps, 1)
	output, ok := execution.Steps[0].Output.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, output["response"], "Hello World")
	assert.Equal(t, "gpt-4o-mini", output["model"])
	assert.Equal(t, output, execution.Output)
	assert.NotEmpty(t, execution.ID)
}

func TestRun_FailureAbortsTraversal(t *testing.T) {
	f := newFixture(t)
	f.registry.ReplaceBody(domain.NodeTypeTool, ports.NodeBodyFunc(
		func(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
			return nil, errors.New("upstream service unavailable")
		}))
	graph := workflow.Chain(workflow.Tool("A", "slack"), workflow.Prompt("B", "never"))

	execution := f.simulator().Run(context.Background(), graph, nil)

	assert.Equal(t, domain.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, "upstream service unavailable", execution.Error)
	require.Len(t, execution.Steps, 1)
	assert.Equal(t, "A", execution.Steps[0].NodeID)
	assert.Equal(t, domain.StepStatusFailed, execution.Steps[0].Status)
	assert.Equal(t, "upstream service unavailable", execution.Steps[0].Error)
	assert.Empty(t, execution.StepsFor("B"))
	assert.NotNil(t, execution.CompletedAt)
}

func TestRun_BodyFailures(t *testing.T) {
	tests := []struct {
		name     string
		node     domain.Node
		input    interface{}
		services func(*domain.ServicesConfig)
		errMsg   string
	}{
		{
			name:   "unknown memory operation",
			node:   workflow.Memory("m", "notes", "purge"),
			errMsg: `unsupported memory operation "purge"`,
		},
		{
			name:   "filter on object input",
			node:   workflow.Filter("f", "score > 1"),
			input:  map[string]interface{}{"score": 2},
			errMsg: "filter expects an array input, got object",
		},
		{
			name:   "unparsable url",
			node:   workflow.HTTPTool("h", "not a url"),
			errMsg: `invalid url "not a url"`,
		},
		{
			name: "missing credential",
			node: workflow.Integration("i", "slack"),
			services: func(s *domain.ServicesConfig) {
				s.RequireCredentials = true
			},
			errMsg: `missing credential for integration "slack"`,
		},
		{
			name:   "unknown integration",
			node:   workflow.Integration("i", "fax"),
			errMsg: `no base URL configured for integration "fax"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.services != nil {
				tt.services(&f.services)
			}

			execution := f.simulator().Run(context.Background(), workflow.Graph([]domain.Node{tt.node}), tt.input)

			assert.Equal(t, domain.ExecutionStatusFailed, execution.Status)
			assert.Contains(t, execution.Error, tt.errMsg)
			require.Len(t, execution.Steps, 1)
			assert.Equal(t, domain.StepStatusFailed, execution.Steps[0].Status)
		})
	}
}

func TestRun_InvalidGraphHasNoSteps(t *testing.T) {
	f := newFixture(t)

	execution := f.simulator().Run(context.Background(), workflow.Graph(nil), nil)

	assert.Equal(t, domain.ExecutionStatusFailed, execution.Status)
	assert.Contains(t, execution.Error, "at least one node")
	assert.Empty(t, execution.Steps)
}

func diamond() domain.Graph {
	return workflow.Graph(
		[]domain.Node{
			workflow.Prompt("A", "start"),
			workflow.Tool("B", "slack"),
			workflow.Tool("C", "github"),
			workflow.Memory("D", "joined", domain.MemoryStore),
		},
		workflow.Edge("A", "B"),
		workflow.Edge("A", "C"),
		workflow.Edge("B", "D"),
		workflow.Edge("C", "D"),
	)
}

func TestRun_PerPathReexecutesSharedNodes(t *testing.T) {
	f := newFixture(t)

	execution := f.simulator().Run(context.Background(), diamond(), nil)

	workflow.RequireCompleted(t, execution)
	assert.Equal(t, []string{"A", "B", "D", "C", "D"}, workflow.StepOrder(execution))
	assert.Len(t, execution.StepsFor("D"), 2)
}

func TestRun_WorklistRunsEachNodeOnce(t *testing.T) {
	f := newFixture(t)
	f.config.Traversal = domain.TraversalWorklist

	execution := f.simulator().Run(context.Background(), diamond(), nil)

	workflow.RequireCompleted(t, execution)
	assert.Equal(t, []string{"A", "B", "C", "D"}, workflow.StepOrder(execution))

	joined, ok := execution.StepsFor("D")[0].Input.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "github", joined["service"])
}

func TestRun_ConditionRoutesLabeledEdges(t *testing.T) {
	graph := workflow.Graph(
		[]domain.Node{
			workflow.Logic("check", "score > 50"),
			workflow.Prompt("pass", "well done"),
			workflow.Prompt("fail", "try again"),
			workflow.Memory("log", "attempts", domain.MemoryUpdate),
		},
		workflow.BranchEdge("check", "true", "pass"),
		workflow.BranchEdge("check", "false", "fail"),
		workflow.Edge("check", "log"),
	)

	tests := []struct {
		name      string
		traversal domain.TraversalMode
		score     int
		expected  []string
	}{
		{"per-path true", domain.TraversalPerPath, 75, []string{"check", "pass", "log"}},
		{"per-path false", domain.TraversalPerPath, 10, []string{"check", "fail", "log"}},
		{"worklist true", domain.TraversalWorklist, 75, []string{"check", "pass", "log"}},
		{"worklist false", domain.TraversalWorklist, 10, []string{"check", "fail", "log"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.config.Traversal = tt.traversal

			execution := f.simulator().Run(context.Background(), graph, map[string]interface{}{"score": tt.score})

			workflow.RequireCompleted(t, execution)
			assert.Equal(t, tt.expected, workflow.StepOrder(execution))
		})
	}
}

func TestRun_WorklistBypassesUntakenBranch(t *testing.T) {
	f := newFixture(t)
	f.config.Traversal = domain.TraversalWorklist
	graph := workflow.Graph(
		[]domain.Node{
			workflow.Logic("check", "status == 'ready'"),
			workflow.Prompt("skip", "not ready"),
			workflow.Memory("after", "done", domain.MemoryStore),
		},
		workflow.BranchEdge("check", "false", "skip"),
		workflow.Edge("skip", "after"),
	)

	execution := f.simulator().Run(context.Background(), graph, map[string]interface{}{"status": "ready"})

	workflow.RequireCompleted(t, execution)
	assert.Equal(t, []string{"check"}, workflow.StepOrder(execution))
}

func TestRun_FilterKeepsMatchingItems(t *testing.T) {
	f := newFixture(t)
	graph := workflow.Graph([]domain.Node{workflow.Filter("adults", "age > 17")})
	input := []map[string]interface{}{{"age": 12}, {"age": 30}, {"name": "no age"}}

	execution := f.simulator().Run(context.Background(), graph, input)

	workflow.RequireCompleted(t, execution)
	assert.Equal(t, []interface{}{map[string]interface{}{"age": float64(30)}}, execution.Output)
}

func TestRun_IntegrationAppliesFieldMapping(t *testing.T) {
	f := newFixture(t)
	f.services.Credentials = map[string]string{"slack": "xoxb-test"}
	node := workflow.Integration("notify", "slack")
	node.Config[domain.ConfigFieldMapping] = map[string]interface{}{"target": "url", "source": "integration"}

	execution := f.simulator().Run(context.Background(), workflow.Graph([]domain.Node{node}), map[string]interface{}{"text": "hi"})

	workflow.RequireCompleted(t, execution)
	output := execution.Output.(map[string]interface{})
	assert.Equal(t, true, output["success"])
	assert.Equal(t, map[string]interface{}{
		"target": "https://slack.com/api/messages",
		"source": "slack",
	}, output["data"])
}

func TestRun_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execution := f.simulator().Run(ctx, workflow.Chain(workflow.Prompt("a", "x"), workflow.Prompt("b", "y")), nil)

	assert.Equal(t, domain.ExecutionStatusCancelled, execution.Status)
	assert.Empty(t, execution.Steps)
	assert.Contains(t, execution.Error, "context canceled")
}

func TestRun_CancelDuringLatency(t *testing.T) {
	f := newFixture(t)
	f.config.DisableLatency = false
	f.config.PromptLatency = time.Minute
	registry, err := bodies.NewDefaultRegistry(bodies.Dependencies{
		Simulator: f.config,
		Evaluator: condition.NewEvaluator(f.logger),
	})
	require.NoError(t, err)
	f.registry = registry

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	execution := f.simulator().Run(ctx, workflow.Chain(workflow.Prompt("slow", "x"), workflow.Prompt("next", "y")), nil)

	assert.Equal(t, domain.ExecutionStatusCancelled, execution.Status)
	require.Len(t, execution.Steps, 1)
	assert.Equal(t, domain.StepStatusFailed, execution.Steps[0].Status)
}

func TestRun_ObserverAndClock(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * 10 * time.Millisecond)
	}

	var mu sync.Mutex
	var events []domain.StepEvent
	observer := func(e domain.StepEvent) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	sim := f.simulator(WithClock(clock), WithObserver(observer), WithIDGenerator(func() string { return "exec-1" }))
	execution := sim.Run(context.Background(), workflow.Chain(workflow.Prompt("a", "x"), workflow.Memory("b", "k", "store")), nil)

	workflow.RequireCompleted(t, execution)
	assert.Equal(t, "exec-1", execution.ID)
	require.Len(t, events, 4)
	assert.Equal(t, domain.StepStatusRunning, events[0].Step.Status)
	assert.Equal(t, domain.StepStatusCompleted, events[1].Step.Status)
	assert.Equal(t, "b", events[2].Step.NodeID)
	assert.Equal(t, 1, events[3].Index)
	for _, step := range execution.Steps {
		assert.Equal(t, int64(10), step.Duration)
	}
}
