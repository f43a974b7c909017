// Package validator checks workflow graphs for structural and per-node
// configuration problems before they are compiled or simulated.
package validator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type Validator struct {
	config domain.ValidatorConfig
	logger *slog.Logger
}

func New(config domain.ValidatorConfig, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRecommendedNodes == 0 {
		config.MaxRecommendedNodes = domain.DefaultValidatorConfig().MaxRecommendedNodes
	}
	return &Validator{
		config: config,
		logger: logger.With("component", "validator"),
	}
}

// Validate runs every check and reports all problems at once. An empty graph
// short-circuits with a single error.
func (v *Validator) Validate(graph domain.Graph) domain.ValidationResult {
	result := domain.NewValidationResult()

	if len(graph.Nodes) == 0 {
		result.AddError("", domain.IssueEmptyGraph, "workflow must contain at least one node")
		v.logger.Debug("validation finished", "nodes", 0, "errors", 1)
		return result
	}

	v.checkNodeIDs(graph, &result)
	v.checkEdges(graph, &result)
	if hasCycle(graph) {
		result.AddError("", domain.IssueCycle, "workflow contains a cycle; workflows must be acyclic")
	}
	v.checkConnectivity(graph, &result)
	for _, node := range graph.Nodes {
		checkNodeConfig(node, &result)
	}
	v.checkBestPractices(graph, &result)

	v.logger.Debug("validation finished",
		"nodes", len(graph.Nodes),
		"edges", len(graph.Edges),
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
	)
	return result
}

func (v *Validator) checkNodeIDs(graph domain.Graph, result *domain.ValidationResult) {
	seen := make(map[string]struct{}, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if node.ID == "" {
			result.AddError("", domain.IssueDuplicateNode, "node id must not be empty")
			continue
		}
		if _, dup := seen[node.ID]; dup {
			result.AddError(node.ID, domain.IssueDuplicateNode, fmt.Sprintf("node id %q is used more than once", node.ID))
			continue
		}
		seen[node.ID] = struct{}{}
	}
}

func (v *Validator) checkEdges(graph domain.Graph, result *domain.ValidationResult) {
	index := graph.Index()
	for _, edge := range graph.Edges {
		if _, ok := index[edge.Source]; !ok {
			result.AddError(edge.Source, domain.IssueInvalidEdge,
				fmt.Sprintf("edge %s references unknown source node %q", edge.ID, edge.Source))
		}
		if _, ok := index[edge.Target]; !ok {
			result.AddError(edge.Target, domain.IssueInvalidEdge,
				fmt.Sprintf("edge %s references unknown target node %q", edge.ID, edge.Target))
		}
		if edge.Source == edge.Target {
			result.AddError(edge.Source, domain.IssueInvalidEdge,
				fmt.Sprintf("edge %s connects node %q to itself", edge.ID, edge.Source))
		}
	}
}

func (v *Validator) checkConnectivity(graph domain.Graph, result *domain.ValidationResult) {
	if len(graph.Nodes) < 2 {
		return
	}
	connected := make(map[string]struct{}, len(graph.Edges)*2)
	for _, edge := range graph.Edges {
		connected[edge.Source] = struct{}{}
		connected[edge.Target] = struct{}{}
	}
	for _, node := range graph.Nodes {
		if _, ok := connected[node.ID]; !ok {
			result.AddWarning(node.ID, domain.IssueDisconnected,
				fmt.Sprintf("node %q is not connected to any other node", node.DisplayName()))
		}
	}
}

func (v *Validator) checkBestPractices(graph domain.Graph, result *domain.ValidationResult) {
	if len(graph.Nodes) > v.config.MaxRecommendedNodes {
		result.AddWarning("", domain.IssueGraphSize,
			fmt.Sprintf("workflow has %d nodes; consider splitting workflows larger than %d nodes for maintainability",
				len(graph.Nodes), v.config.MaxRecommendedNodes))
	}

	missing := 0
	for _, node := range graph.Nodes {
		if strings.TrimSpace(node.Description) == "" {
			missing++
		}
	}
	if missing > 0 {
		result.AddWarning("", domain.IssueMissingDescription,
			fmt.Sprintf("%d node(s) are missing a description", missing))
	}
}
