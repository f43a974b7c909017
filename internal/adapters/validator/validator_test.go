package validator

import (
	"fmt"
	"testing"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"
)

func prompt(id string) domain.Node {
	return domain.Node{
		ID:          id,
		Type:        domain.NodeTypePrompt,
		Description: "prompt " + id,
		Config:      map[string]interface{}{"instruction": "Say hi"},
	}
}

func edge(source, target string) domain.Edge {
	return domain.Edge{ID: source + "-" + target, Source: source, Target: target}
}

func kinds(issues []domain.Issue) []domain.IssueKind {
	out := make([]domain.IssueKind, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Kind)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		graph    domain.Graph
		valid    bool
		errors   []domain.IssueKind
		warnings []domain.IssueKind
	}{
		{
			name:   "empty graph",
			graph:  domain.Graph{},
			errors: []domain.IssueKind{domain.IssueEmptyGraph},
		},
		{
			name:  "valid chain",
			graph: domain.NewGraph([]domain.Node{prompt("a"), prompt("b")}, []domain.Edge{edge("a", "b")}),
			valid: true,
		},
		{
			name:  "single node needs no edges",
			graph: domain.NewGraph([]domain.Node{prompt("a")}, nil),
			valid: true,
		},
		{
			name: "cycle",
			graph: domain.NewGraph(
				[]domain.Node{prompt("a"), prompt("b"), prompt("c")},
				[]domain.Edge{edge("a", "b"), edge("b", "c"), edge("c", "a")},
			),
			errors: []domain.IssueKind{domain.IssueCycle},
		},
		{
			name: "self loop",
			graph: domain.NewGraph(
				[]domain.Node{prompt("a")},
				[]domain.Edge{edge("a", "a")},
			),
			errors: []domain.IssueKind{domain.IssueInvalidEdge, domain.IssueCycle},
		},
		{
			name: "dangling edge",
			graph: domain.NewGraph(
				[]domain.Node{prompt("a"), prompt("b")},
				[]domain.Edge{edge("a", "b"), edge("b", "ghost")},
			),
			errors: []domain.IssueKind{domain.IssueInvalidEdge},
		},
		{
			name: "duplicate ids",
			graph: domain.NewGraph(
				[]domain.Node{prompt("a"), prompt("a")},
				nil,
			),
			errors:   []domain.IssueKind{domain.IssueDuplicateNode},
			warnings: []domain.IssueKind{domain.IssueDisconnected, domain.IssueDisconnected},
		},
		{
			name: "disconnected node",
			graph: domain.NewGraph(
				[]domain.Node{prompt("a"), prompt("b"), prompt("c")},
				[]domain.Edge{edge("a", "b")},
			),
			valid:    true,
			warnings: []domain.IssueKind{domain.IssueDisconnected},
		},
		{
			name: "unknown type",
			graph: domain.NewGraph(
				[]domain.Node{{ID: "w", Type: "webhook", Description: "hook"}},
				nil,
			),
			errors: []domain.IssueKind{domain.IssueUnknownType},
		},
		{
			name: "missing description",
			graph: domain.NewGraph(
				[]domain.Node{{ID: "a", Type: domain.NodeTypeMemory, Config: map[string]interface{}{"key": "k"}}},
				nil,
			),
			valid:    true,
			warnings: []domain.IssueKind{domain.IssueMissingDescription},
		},
	}

	v := New(domain.ValidatorConfig{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.graph)

			assert.Equal(t, tt.valid, result.IsValid)
			if tt.errors == nil {
				tt.errors = []domain.IssueKind{}
			}
			if tt.warnings == nil {
				tt.warnings = []domain.IssueKind{}
			}
			assert.Equal(t, tt.errors, kinds(result.Errors))
			assert.Equal(t, tt.warnings, kinds(result.Warnings))
		})
	}
}

func TestValidate_MissingFields(t *testing.T) {
	nodes := []domain.Node{
		{ID: "p", Type: domain.NodeTypePrompt, Description: "d"},
		{ID: "t", Type: domain.NodeTypeTool, Description: "d"},
		{ID: "h", Type: domain.NodeTypeTool, Description: "d", Config: map[string]interface{}{"service": "http"}},
		{ID: "l", Type: domain.NodeTypeLogic, Description: "d", Config: map[string]interface{}{"condition": "  "}},
		{ID: "m", Type: domain.NodeTypeMemory, Description: "d"},
		{ID: "i", Type: domain.NodeTypeIntegration, Label: "Notify", Description: "d"},
	}
	edges := []domain.Edge{edge("p", "t"), edge("t", "h"), edge("h", "l"), edge("l", "m"), edge("m", "i")}

	result := New(domain.ValidatorConfig{}, nil).Validate(domain.NewGraph(nodes, edges))

	trequire.False(t, result.IsValid)
	trequire.Len(t, result.Errors, 6)
	for _, issue := range result.Errors {
		assert.Equal(t, domain.IssueMissingField, issue.Kind)
	}
	assert.Equal(t, "t", result.Errors[1].NodeID)
	assert.Equal(t, "h: HTTP tool requires a URL", result.Errors[2].Message)
	assert.Equal(t, "Notify: integration must be selected", result.Errors[5].Message)
}

func TestValidate_GraphSize(t *testing.T) {
	var nodes []domain.Node
	var edges []domain.Edge
	for i := 0; i < 4; i++ {
		nodes = append(nodes, prompt(fmt.Sprintf("n%d", i)))
		if i > 0 {
			edges = append(edges, edge(fmt.Sprintf("n%d", i-1), fmt.Sprintf("n%d", i)))
		}
	}

	result := New(domain.ValidatorConfig{MaxRecommendedNodes: 3}, nil).Validate(domain.NewGraph(nodes, edges))
	assert.True(t, result.IsValid)
	assert.Equal(t, []domain.IssueKind{domain.IssueGraphSize}, kinds(result.Warnings))

	result = New(domain.ValidatorConfig{}, nil).Validate(domain.NewGraph(nodes, edges))
	assert.Empty(t, result.Warnings)
}

func TestValidationResult_Err(t *testing.T) {
	result := New(domain.ValidatorConfig{}, nil).Validate(domain.Graph{})

	err := result.Err()
	trequire.Error(t, err)
	assert.True(t, domain.IsInvalidGraph(err))
	assert.Contains(t, err.Error(), "at least one node")
}
