package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/testutil/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGenerator() *Generator {
	return New(OptionsFromConfig(domain.DefaultCompilerConfig()))
}

func TestGenerate_EveryNodeType(t *testing.T) {
	tests := []struct {
		name     string
		node     domain.Node
		kind     string
		contains []string
		excludes []string
	}{
		{
			name:     "prompt",
			node:     workflow.Prompt("p1", "Hello {{name}}"),
			kind:     "ai.prompt",
			contains: []string{"context.ai.generate", `"instruction":"Hello {{name}}"`, `"model":"gpt-4o-mini"`, "tokensUsed"},
		},
		{
			name:     "http tool",
			node:     workflow.HTTPTool("t1", "https://example.com/{{id}}"),
			kind:     "http.request",
			contains: []string{"context.http.fetch", "status: response.status"},
			excludes: []string{"not_implemented"},
		},
		{
			name:     "generic tool",
			node:     workflow.Tool("t2", "Google Sheets"),
			kind:     "tool.google_sheets",
			contains: []string{"service: config.service", "not_implemented"},
			excludes: []string{"context.http.fetch"},
		},
		{
			name:     "condition",
			node:     workflow.Logic("l1", "score > 50"),
			kind:     "control.condition",
			contains: []string{`const condition = "score > 50";`, "condition: evaluate(condition, input)"},
		},
		{
			name:     "filter",
			node:     workflow.Filter("l2", "active == true"),
			kind:     "control.filter",
			contains: []string{"input.filter(", "expects an array input"},
		},
		{
			name:     "memory",
			node:     workflow.Memory("m1", "notes", domain.MemoryRetrieve),
			kind:     "memory.retrieve",
			contains: []string{`case "retrieve":`, "placeholder: true"},
		},
		{
			name:     "integration",
			node:     workflow.Integration("i1", "slack"),
			kind:     "integration.slack",
			contains: []string{"context.credentials.get(integrationId)", "fieldMapping", "rawResponse"},
			excludes: []string{"https://slack.com"},
		},
	}

	g := newGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, g.Kind(tt.node))

			script, err := g.Generate(tt.node, ports.FlavorBranchMap)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(script, "// "+tt.kind))
			assert.Contains(t, script, "async function run(input, context)")
			assert.NotContains(t, script, "export default")
			for _, s := range tt.contains {
				assert.Contains(t, script, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, script, s)
			}
		})
	}
}

func TestGenerate_ModuleListFlavor(t *testing.T) {
	g := newGenerator()
	node := workflow.Prompt("p1", "Hi {{name}}")

	branchMap, err := g.Generate(node, ports.FlavorBranchMap)
	require.NoError(t, err)
	moduleList, err := g.Generate(node, ports.FlavorModuleList)
	require.NoError(t, err)

	assert.Contains(t, moduleList, "export default async function run")
	assert.Contains(t, moduleList, "context.variables")
	assert.NotContains(t, branchMap, "context.variables")
}

func TestGenerate_Deterministic(t *testing.T) {
	g := newGenerator()
	node := workflow.Node("h", domain.NodeTypeTool, workflow.Config{
		domain.ConfigService: "http",
		domain.ConfigURL:     "https://example.com",
		domain.ConfigHeaders: map[string]interface{}{"b": "2", "a": "1", "c": "3"},
	})

	first, err := g.Generate(node, ports.FlavorBranchMap)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := g.Generate(node, ports.FlavorBranchMap)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Contains(t, first, `"headers":{"a":"1","b":"2","c":"3"}`)
}

func TestGenerate_CommentSafeLabels(t *testing.T) {
	node := workflow.Prompt("p1", "x")
	node.Label = "line one\nline two */ tail"

	script, err := newGenerator().Generate(node, ports.FlavorBranchMap)
	require.NoError(t, err)
	firstLine := strings.SplitN(script, "\n", 2)[0]
	assert.Equal(t, `// ai.prompt step "line one line two * / tail" (p1)`, firstLine)
}

func TestGenerate_UnknownType(t *testing.T) {
	_, err := newGenerator().Generate(workflow.Node("x", "webhook", nil), ports.FlavorBranchMap)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownNodeType))
}

func TestBranches(t *testing.T) {
	g := newGenerator()
	assert.Equal(t, []string{"true", "false"}, g.Branches(workflow.Logic("l", "a == b")))
	assert.Nil(t, g.Branches(workflow.Filter("f", "a == b")))
	assert.Nil(t, g.Branches(workflow.Prompt("p", "hi")))
}
