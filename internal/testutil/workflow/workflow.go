// Package workflow builds graphs and checks traces in tests.
package workflow

import (
	"fmt"
	"testing"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Config = map[string]interface{}

func Node(id string, nodeType domain.NodeType, config Config) domain.Node {
	return domain.Node{
		ID:          id,
		Type:        nodeType,
		Label:       id,
		Description: "test node " + id,
		Config:      config,
	}
}

func Prompt(id, instruction string) domain.Node {
	return Node(id, domain.NodeTypePrompt, Config{domain.ConfigInstruction: instruction})
}

func Tool(id, service string) domain.Node {
	return Node(id, domain.NodeTypeTool, Config{
		domain.ConfigService: service,
		domain.ConfigOnError: "stop",
	})
}

func HTTPTool(id, url string) domain.Node {
	return Node(id, domain.NodeTypeTool, Config{
		domain.ConfigService: domain.ServiceHTTP,
		domain.ConfigURL:     url,
		domain.ConfigMethod:  "GET",
		domain.ConfigOnError: "stop",
	})
}

func Logic(id, condition string) domain.Node {
	return Node(id, domain.NodeTypeLogic, Config{domain.ConfigCondition: condition})
}

func Filter(id, condition string) domain.Node {
	return Node(id, domain.NodeTypeLogic, Config{
		domain.ConfigCondition: condition,
		domain.ConfigLogicType: domain.LogicTypeFilter,
	})
}

func Memory(id, key, operation string) domain.Node {
	return Node(id, domain.NodeTypeMemory, Config{
		domain.ConfigKey:       key,
		domain.ConfigOperation: operation,
	})
}

func Integration(id, integration string) domain.Node {
	return Node(id, domain.NodeTypeIntegration, Config{
		domain.ConfigIntegration: integration,
		domain.ConfigEndpoint:    "/messages",
		domain.ConfigOnError:     "stop",
	})
}

// Edge links source to target with a generated id.
func Edge(source, target string) domain.Edge {
	return domain.Edge{ID: fmt.Sprintf("e-%s-%s", source, target), Source: source, Target: target}
}

// BranchEdge links source to target through the named source handle.
func BranchEdge(source, branch, target string) domain.Edge {
	e := Edge(source, target)
	e.ID += "-" + branch
	e.SourceHandle = branch
	return e
}

// Chain connects nodes in the given order.
func Chain(nodes ...domain.Node) domain.Graph {
	edges := make([]domain.Edge, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		edges = append(edges, Edge(nodes[i-1].ID, nodes[i].ID))
	}
	return domain.Graph{Name: "test", Nodes: nodes, Edges: edges}
}

func Graph(nodes []domain.Node, edges ...domain.Edge) domain.Graph {
	if edges == nil {
		edges = []domain.Edge{}
	}
	return domain.Graph{Name: "test", Nodes: nodes, Edges: edges}
}

// StepOrder returns the node ids of the trace in execution order.
func StepOrder(execution *domain.Execution) []string {
	ids := make([]string, 0, len(execution.Steps))
	for _, step := range execution.Steps {
		ids = append(ids, step.NodeID)
	}
	return ids
}

func AssertIssueKinds(t *testing.T, issues []domain.Issue, kinds ...domain.IssueKind) {
	t.Helper()

	got := make([]domain.IssueKind, 0, len(issues))
	for _, issue := range issues {
		got = append(got, issue.Kind)
	}
	assert.ElementsMatch(t, kinds, got)
}

func RequireCompleted(t *testing.T, execution *domain.Execution) {
	t.Helper()

	require.NotNil(t, execution)
	require.Equalf(t, domain.ExecutionStatusCompleted, execution.Status, "execution error: %s", execution.Error)
	require.NotNil(t, execution.CompletedAt)
	for _, step := range execution.Steps {
		assert.Equal(t, domain.StepStatusCompleted, step.Status, "step %s", step.NodeID)
	}
}
