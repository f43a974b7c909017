// Package simulator interprets a graph in-process, running the simulated body
// of each node and recording a step-by-step execution trace.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

type Simulator struct {
	validator ports.ValidatorPort
	resolver  ports.ResolverPort
	bodies    ports.BodyRegistryPort
	config    domain.SimulatorConfig
	services  domain.ServicesConfig
	observer  ports.StepObserver
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

type Option func(*Simulator)

// WithObserver registers a callback notified when each step starts and
// finishes.
func WithObserver(observer ports.StepObserver) Option {
	return func(s *Simulator) {
		s.observer = observer
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Simulator) {
		s.newID = newID
	}
}

func WithServices(services domain.ServicesConfig) Option {
	return func(s *Simulator) {
		s.services = services
	}
}

func New(validator ports.ValidatorPort, resolver ports.ResolverPort, bodies ports.BodyRegistryPort, config domain.SimulatorConfig, logger *slog.Logger, opts ...Option) *Simulator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Traversal == "" {
		config.Traversal = domain.TraversalPerPath
	}

	s := &Simulator{
		validator: validator,
		resolver:  resolver,
		bodies:    bodies,
		config:    config,
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger.With("component", "simulator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run simulates graph with input and returns the finished trace. Failures are
// recorded in the trace; Run itself never fails.
func (s *Simulator) Run(ctx context.Context, graph domain.Graph, input interface{}) *domain.Execution {
	execution := domain.NewExecution(s.newID(), graph.Name, input, s.now())
	logger := s.logger.With("execution_id", execution.ID, "graph_name", graph.Name)

	flowInput, err := xjson.Normalize(input)
	if err != nil {
		execution.Fail(fmt.Errorf("%w: input is not JSON serializable: %v", domain.ErrInvalidInput, err), s.now())
		return execution
	}
	execution.Input = flowInput

	validation := s.validator.Validate(graph)
	if validation.HasErrors() {
		execution.Fail(validation.Err(), s.now())
		logger.Info("simulation rejected invalid graph", "errors", len(validation.Errors))
		return execution
	}

	r := &run{
		sim:       s,
		execution: execution,
		graph:     graph,
		index:     graph.Index(),
		flowInput: flowInput,
	}

	logger.Debug("simulation started", "traversal", s.config.Traversal, "nodes", len(graph.Nodes))
	switch s.config.Traversal {
	case domain.TraversalWorklist:
		err = r.worklist(ctx)
	default:
		err = r.perPath(ctx)
	}

	finished := s.now()
	switch {
	case err == nil:
		execution.Complete(r.last, finished)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		execution.Cancel(cause(err), finished)
	default:
		execution.Fail(cause(err), finished)
	}

	logger.Info("simulation finished",
		"status", execution.Status,
		"steps", len(execution.Steps),
		"duration_ms", finished.Sub(execution.StartedAt).Milliseconds(),
	)
	return execution
}

// cause strips the node wrapper so the execution reports the body's own
// message, matching the failed step.
func cause(err error) error {
	var nodeErr *domain.NodeError
	if errors.As(err, &nodeErr) && nodeErr.Err != nil {
		return nodeErr.Err
	}
	return err
}

type run struct {
	sim       *Simulator
	execution *domain.Execution
	graph     domain.Graph
	index     map[string]domain.Node
	flowInput interface{}
	last      interface{}
}

// perPath descends recursively from every entry node. A node reachable
// through several paths runs once per path.
func (r *run) perPath(ctx context.Context) error {
	for _, entry := range r.sim.resolver.EntryNodes(r.graph.Nodes, r.graph.Edges) {
		if err := r.visit(ctx, entry, r.flowInput); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) visit(ctx context.Context, node domain.Node, input interface{}) error {
	output, err := r.execute(ctx, node, input)
	if err != nil {
		return err
	}
	for _, target := range r.next(node, output) {
		if err := r.visit(ctx, r.index[target], output); err != nil {
			return err
		}
	}
	return nil
}

// worklist runs every node once, after all of its predecessors finished or
// were bypassed by a branch that was not taken.
func (r *run) worklist(ctx context.Context) error {
	pending := make(map[string]int, len(r.graph.Nodes))
	for _, node := range r.graph.Nodes {
		pending[node.ID] = len(r.predecessors(node.ID))
	}
	received := make(map[string]map[string]interface{})

	var queue []string
	for _, entry := range r.sim.resolver.EntryNodes(r.graph.Nodes, r.graph.Edges) {
		queue = append(queue, entry.ID)
	}

	var release func(target string)
	release = func(target string) {
		pending[target]--
		if pending[target] > 0 {
			return
		}
		if len(received[target]) > 0 {
			queue = append(queue, target)
			return
		}
		// every path into target was bypassed
		for _, next := range r.sim.resolver.NextSteps(target, r.graph.Edges) {
			release(next)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node := r.index[id]

		input, err := r.fanIn(id, received[id])
		if err != nil {
			return domain.NewNodeError(node, err)
		}
		output, err := r.execute(ctx, node, input)
		if err != nil {
			return err
		}

		followed := make(map[string]struct{})
		for _, target := range r.next(node, output) {
			followed[target] = struct{}{}
		}
		for _, target := range r.sim.resolver.NextSteps(id, r.graph.Edges) {
			if _, ok := followed[target]; ok {
				if received[target] == nil {
					received[target] = make(map[string]interface{})
				}
				received[target][id] = output
			}
			release(target)
		}
	}
	return nil
}

// fanIn builds the input of a worklist node from the outputs it received, in
// predecessor edge order.
func (r *run) fanIn(id string, outputs map[string]interface{}) (interface{}, error) {
	sources := r.predecessors(id)
	if len(sources) == 0 {
		return r.flowInput, nil
	}
	upstream := make([]domain.UpstreamOutput, 0, len(outputs))
	for _, source := range sources {
		if output, ok := outputs[source]; ok {
			upstream = append(upstream, domain.UpstreamOutput{SourceID: source, Output: output})
		}
	}
	return domain.MergeInputs(upstream)
}

// predecessors returns the distinct sources feeding id.
func (r *run) predecessors(id string) []string {
	var sources []string
	seen := make(map[string]struct{})
	for _, source := range r.sim.resolver.Predecessors(id, r.graph.Edges) {
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	return sources
}

// next resolves the targets to continue with after node produced output.
// A condition node skips edges labeled with the branch it did not take.
func (r *run) next(node domain.Node, output interface{}) []string {
	targets := r.sim.resolver.NextSteps(node.ID, r.graph.Edges)
	taken, ok := branchTaken(node, output)
	if !ok {
		return targets
	}

	skipped := domain.BranchFalse
	if taken == domain.BranchFalse {
		skipped = domain.BranchTrue
	}
	allowed := make(map[string]struct{}, len(targets))
	for handle, handleTargets := range r.sim.resolver.BranchTargets(node.ID, r.graph.Edges) {
		if handle == skipped {
			continue
		}
		for _, t := range handleTargets {
			allowed[t] = struct{}{}
		}
	}

	followed := make([]string, 0, len(targets))
	for _, t := range targets {
		if _, ok := allowed[t]; ok {
			followed = append(followed, t)
		}
	}
	return followed
}

func branchTaken(node domain.Node, output interface{}) (string, bool) {
	if node.Type != domain.NodeTypeLogic || node.ConfigString(domain.ConfigLogicType) == domain.LogicTypeFilter {
		return "", false
	}
	result, ok := output.(map[string]interface{})
	if !ok {
		return "", false
	}
	holds, ok := result["condition"].(bool)
	if !ok {
		return "", false
	}
	if holds {
		return domain.BranchTrue, true
	}
	return domain.BranchFalse, true
}

// execute runs one node body and records its step.
func (r *run) execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	steps := &r.execution.Steps
	*steps = append(*steps, domain.ExecutionStep{
		NodeID:    node.ID,
		NodeType:  node.Type,
		Status:    domain.StepStatusRunning,
		StartedAt: r.sim.now(),
		Input:     input,
	})
	idx := len(*steps) - 1
	r.notify(idx)

	output, err := r.invoke(ctx, node, input)

	step := &(*steps)[idx]
	completed := r.sim.now()
	step.CompletedAt = &completed
	step.Duration = completed.Sub(step.StartedAt).Milliseconds()
	if err != nil {
		step.Status = domain.StepStatusFailed
		step.Error = err.Error()
		r.notify(idx)
		r.sim.logger.Debug("step failed",
			"execution_id", r.execution.ID,
			"node_id", node.ID,
			"node_type", node.Type,
			"error", err.Error(),
		)
		return nil, domain.NewNodeError(node, err)
	}

	step.Status = domain.StepStatusCompleted
	step.Output = output
	r.last = output
	r.notify(idx)
	return output, nil
}

func (r *run) invoke(ctx context.Context, node domain.Node, input interface{}) (output interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("node body panicked: %v", p)
		}
	}()

	body, err := r.sim.bodies.GetBody(node.Type)
	if err != nil {
		return nil, err
	}
	ctx = domain.WithExecutionContext(ctx, &domain.ExecutionContext{
		ExecutionID: r.execution.ID,
		GraphName:   r.graph.Name,
		NodeID:      node.ID,
		NodeType:    node.Type,
		Attempt:     len(r.execution.StepsFor(node.ID)),
		Services:    r.sim.services,
		FlowInput:   r.flowInput,
	})
	return body.Execute(ctx, node, input)
}

func (r *run) notify(idx int) {
	if r.sim.observer == nil {
		return
	}
	r.sim.observer(domain.StepEvent{
		ExecutionID: r.execution.ID,
		Step:        r.execution.Steps[idx],
		Index:       idx,
	})
}
