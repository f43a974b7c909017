package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainGraph = `{
  "name": "Chain",
  "nodes": [
    {"id": "a", "type": "prompt", "description": "greets", "config": {"instruction": "Hello {{name}}"}},
    {"id": "b", "type": "memory", "description": "remembers", "config": {"key": "greeting"}}
  ],
  "edges": [{"id": "e1", "source": "a", "target": "b"}]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		shouldExit bool
		errCode    int
		errMsg     string
		check      func(t *testing.T, opts *Options)
	}{
		{
			name:       "help",
			args:       []string{"-h"},
			shouldExit: true,
		},
		{
			name:       "no command prints usage",
			args:       []string{},
			shouldExit: true,
		},
		{
			name: "defaults",
			args: []string{"validate", "graph.json"},
			check: func(t *testing.T, opts *Options) {
				assert.Equal(t, CommandValidate, opts.Command)
				assert.Equal(t, "graph.json", opts.Path)
				assert.Equal(t, "warn", opts.LogLevel)
				assert.Equal(t, "text", opts.LogFormat)
				assert.Equal(t, "sqlite", opts.HistoryBackend)
				assert.Equal(t, 20, opts.Limit)
			},
		},
		{
			name: "flags are normalized",
			args: []string{"-log-level", "DEBUG", "-log-format", "JSON", "-strategy", "module-list", "-traversal", "worklist", "compile", "graph.hcl"},
			check: func(t *testing.T, opts *Options) {
				assert.Equal(t, "debug", opts.LogLevel)
				assert.Equal(t, "json", opts.LogFormat)
				assert.Equal(t, "module-list", opts.Strategy)
				assert.Equal(t, "worklist", opts.Traversal)
			},
		},
		{
			name: "history without id",
			args: []string{"-history-dir", "/tmp/history", "history"},
			check: func(t *testing.T, opts *Options) {
				assert.Equal(t, CommandHistory, opts.Command)
				assert.Empty(t, opts.Path)
			},
		},
		{name: "unknown flag", args: []string{"-nope"}, errCode: 2, errMsg: "flag provided but not defined"},
		{name: "unknown command", args: []string{"deploy", "graph.json"}, errCode: 2, errMsg: `unknown command "deploy"`},
		{name: "missing file", args: []string{"simulate"}, errCode: 2, errMsg: "simulate requires a graph file"},
		{name: "extra arguments", args: []string{"validate", "a.json", "b.json"}, errCode: 2, errMsg: "unexpected arguments: b.json"},
		{name: "history without dir", args: []string{"history"}, errCode: 2, errMsg: "history requires -history-dir"},
		{name: "bad log format", args: []string{"-log-format", "xml", "validate", "g.json"}, errCode: 2, errMsg: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "trace", "validate", "g.json"}, errCode: 2, errMsg: "invalid log-level"},
		{name: "bad traversal", args: []string{"-traversal", "random", "simulate", "g.json"}, errCode: 2, errMsg: "invalid traversal"},
		{name: "bad history backend", args: []string{"-history-backend", "redis", "validate", "g.json"}, errCode: 2, errMsg: "invalid history-backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			opts, shouldExit, err := Parse(tt.args, out)

			if tt.errCode != 0 {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tt.errCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.shouldExit, shouldExit)
			if tt.shouldExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			tt.check(t, opts)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, domain.Config{}, *config)

	jsonPath := writeFile(t, "config.json", `{"validator": {"max_recommended_nodes": 3}, "simulator": {"traversal": "worklist"}}`)
	config, err = LoadConfig(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 3, config.Validator.MaxRecommendedNodes)
	assert.Equal(t, domain.TraversalWorklist, config.Simulator.Traversal)

	yamlPath := writeFile(t, "config.yaml", `
compiler:
  default_strategy: module-list
services:
  integrations:
    jira:
      base_url: https://jira.example.com
      auth_scheme: Basic
`)
	config, err = LoadConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "module-list", config.Compiler.DefaultStrategy)
	assert.Equal(t, "https://jira.example.com", config.Services.Integrations["jira"].BaseURL)

	_, err = LoadConfig(writeFile(t, "broken.json", `{"validator": `))
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseInput(t *testing.T) {
	input, err := parseInput("")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{}, input)

	input, err = parseInput(`{"name": "World"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "World"}, input)

	input, err = parseInput("@" + writeFile(t, "input.json", `[1, 2]`))
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float64(1), float64(2)}, input)

	_, err = parseInput("{not json")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	opts, shouldExit, err := Parse(args, out)
	require.NoError(t, err)
	require.False(t, shouldExit)
	err = Run(context.Background(), opts, out, &bytes.Buffer{})
	return out.String(), err
}

func TestRun_Validate(t *testing.T) {
	out, err := run(t, "validate", writeFile(t, "chain.json", chainGraph))
	require.NoError(t, err)

	var result domain.ValidationResult
	require.NoError(t, xjson.Unmarshal([]byte(out), &result))
	assert.True(t, result.IsValid)

	out, err = run(t, "validate", writeFile(t, "empty.json", `{"nodes": [], "edges": []}`))
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out, "empty_graph")
}

func TestRun_Compile(t *testing.T) {
	path := writeFile(t, "chain.json", chainGraph)

	out, err := run(t, "-strategy", "module-list", "-name", "Greeter", "compile", path)
	require.NoError(t, err)

	var result struct {
		Strategy string                    `json:"strategy"`
		Artifact domain.ModuleListArtifact `json:"artifact"`
	}
	require.NoError(t, xjson.Unmarshal([]byte(out), &result))
	assert.Equal(t, "module-list", result.Strategy)
	assert.Equal(t, "Greeter", result.Artifact.Name)
	require.Len(t, result.Artifact.Modules, 1)
	assert.Equal(t, "b", result.Artifact.Modules[0].ID)

	_, err = run(t, "-strategy", "zip", "compile", path)
	assert.Equal(t, 2, ExitCode(err))

	_, err = run(t, "compile", filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, 1, ExitCode(err))
}

func TestRun_SimulateAndHistory(t *testing.T) {
	path := writeFile(t, "chain.json", chainGraph)
	historyDir := t.TempDir()

	out, err := run(t, "-no-latency", "-history-dir", historyDir, "-input", `{"name": "World"}`, "simulate", path)
	require.NoError(t, err)

	var execution domain.Execution
	require.NoError(t, xjson.Unmarshal([]byte(out), &execution))
	assert.Equal(t, domain.ExecutionStatusCompleted, execution.Status)
	require.Len(t, execution.Steps, 2)
	assert.Contains(t, execution.Steps[0].Output.(map[string]interface{})["response"], "Hello World")

	out, err = run(t, "-history-dir", historyDir, "history")
	require.NoError(t, err)
	var entries []historyEntry
	require.NoError(t, xjson.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, execution.ID, entries[0].ID)
	assert.Equal(t, 2, entries[0].Steps)

	out, err = run(t, "-history-dir", historyDir, "history", execution.ID)
	require.NoError(t, err)
	assert.Contains(t, out, `"graphName": "Chain"`)

	_, err = run(t, "-history-dir", historyDir, "history", "missing")
	assert.Equal(t, 1, ExitCode(err))
}

func TestRun_SimulateFailure(t *testing.T) {
	graph := `{
  "nodes": [{"id": "call", "type": "tool", "config": {"service": "http", "url": "not a url"}}],
  "edges": []
}`
	out, err := run(t, "-no-latency", "simulate", writeFile(t, "bad.json", graph))
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out, `"status": "failed"`)
}

func TestNewLogger(t *testing.T) {
	out := &bytes.Buffer{}
	logger := NewLogger("info", "json", out)
	logger.Debug("hidden")
	logger.Info("shown", "key", "value")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
}
