// Package compiler turns validated graphs into back-end artifacts. Both
// strategies share one Pipeline so validation, entry selection and next-step
// linkage behave identically whichever shape is produced.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

const (
	StrategyBranchMap  = "branch-map"
	StrategyModuleList = "module-list"
)

type Pipeline struct {
	validator ports.ValidatorPort
	resolver  ports.ResolverPort
	generator ports.ScriptGeneratorPort
	logger    *slog.Logger
}

func NewPipeline(validator ports.ValidatorPort, resolver ports.ResolverPort, generator ports.ScriptGeneratorPort, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		validator: validator,
		resolver:  resolver,
		generator: generator,
		logger:    logger.With("component", "compiler"),
	}
}

// plan is a graph that passed validation, split into its trigger and the
// remaining nodes in declaration order.
type plan struct {
	graph   domain.Graph
	trigger domain.Node
	rest    []domain.Node
}

// prepare validates graph and selects the trigger. It reports false when the
// caller must return a placeholder artifact; result then carries exactly the
// blocking errors.
func (p *Pipeline) prepare(graph domain.Graph, result *domain.CompileResult) (*plan, bool) {
	validation := p.validator.Validate(graph)
	result.Warnings = append(result.Warnings, validation.Warnings...)
	if validation.HasErrors() {
		result.Errors = validation.Errors
		p.logger.Debug("compilation blocked by validation",
			"strategy", result.Strategy,
			"errors", len(validation.Errors),
		)
		return nil, false
	}

	entries := p.resolver.EntryNodes(graph.Nodes, graph.Edges)
	if len(entries) == 0 {
		result.AddError("", domain.IssueMissingEntry, "workflow has no entry node; every node has an incoming edge")
		return nil, false
	}
	if len(entries) > 1 {
		result.AddWarning(entries[0].ID, domain.IssueMultipleEntries,
			fmt.Sprintf("workflow has %d entry nodes; %q is used as the trigger and the others are not linked from it",
				len(entries), entries[0].DisplayName()))
	}

	trigger := entries[0]
	rest := make([]domain.Node, 0, len(graph.Nodes)-1)
	for _, node := range graph.Nodes {
		if node.ID != trigger.ID {
			rest = append(rest, node)
		}
	}
	return &plan{graph: graph, trigger: trigger, rest: rest}, true
}

// script renders the body for node, recording a generation error on failure.
func (p *Pipeline) script(node domain.Node, flavor ports.ScriptFlavor, result *domain.CompileResult) string {
	body, err := p.generator.Generate(node, flavor)
	if err != nil {
		result.AddError(node.ID, domain.IssueGeneration, err.Error())
		return ""
	}
	return body
}

// linkage computes the branch names and next-step map of node. Simple nodes
// link "default" to their first downstream target. Branching nodes link each
// branch to the target of an edge labeled with that branch, or alias it to
// the first unlabeled target.
func (p *Pipeline) linkage(node domain.Node, edges []domain.Edge, warnFanOut bool, result *domain.CompileResult) ([]string, map[string]string) {
	targets := p.resolver.NextSteps(node.ID, edges)
	branches := p.generator.Branches(node)

	if len(branches) == 0 {
		if len(targets) == 0 {
			return nil, nil
		}
		if warnFanOut && len(targets) > 1 {
			result.AddWarning(node.ID, domain.IssueBranchTarget,
				fmt.Sprintf("node %q has %d downstream nodes; only %q is linked as its next step",
					node.DisplayName(), len(targets), targets[0]))
		}
		return nil, map[string]string{domain.BranchDefault: targets[0]}
	}

	if len(targets) == 0 {
		result.AddWarning(node.ID, domain.IssueBranchTarget,
			fmt.Sprintf("logic node %q has no downstream node for its branches", node.DisplayName()))
		return branches, nil
	}

	labeled := p.resolver.BranchTargets(node.ID, edges)
	fallback := targets[0]
	if unlabeled := labeled[""]; len(unlabeled) > 0 {
		fallback = unlabeled[0]
	}

	next := make(map[string]string, len(branches))
	reached := make(map[string]struct{}, len(branches))
	for _, branch := range branches {
		target := fallback
		if t := labeled[branch]; len(t) > 0 {
			target = t[0]
		}
		next[branch] = target
		reached[target] = struct{}{}
	}
	if len(reached) < len(targets) {
		result.AddWarning(node.ID, domain.IssueBranchTarget,
			fmt.Sprintf("logic node %q has %d downstream nodes but its branches reach only %d; label edges with a branch handle to diverge",
				node.DisplayName(), len(targets), len(reached)))
	}
	return branches, next
}

// checkErrorHandling warns about tool and integration nodes that do not
// declare how failures are handled.
func (p *Pipeline) checkErrorHandling(graph domain.Graph, result *domain.CompileResult) {
	for _, node := range graph.Nodes {
		if node.Type != domain.NodeTypeTool && node.Type != domain.NodeTypeIntegration {
			continue
		}
		if !node.HasConfig(domain.ConfigOnError) {
			result.AddWarning(node.ID, domain.IssueErrorHandling,
				fmt.Sprintf("%s node %q should define onError to handle failures", node.Type, node.DisplayName()))
		}
	}
}

func (p *Pipeline) kind(node domain.Node) string {
	return p.generator.Kind(node)
}

func newResult(strategy string) *domain.CompileResult {
	return &domain.CompileResult{
		Strategy: strategy,
		Errors:   []domain.Issue{},
		Warnings: []domain.Issue{},
	}
}

func copyConfig(config map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(config))
	for k, v := range config {
		out[k] = v
	}
	return out
}
