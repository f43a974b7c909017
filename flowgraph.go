// Package flowgraph validates, compiles and simulates visual workflow graphs.
//
// A graph is a list of typed nodes (prompt, tool, logic, memory and
// integration) connected by directed edges. The package can:
//   - validate a graph for structural and configuration problems
//   - compile it into a branch-map or module-list artifact whose per-node
//     scripts run on an external back end
//   - simulate it in-process and record a step-by-step execution trace
//
// Basic usage:
//
//	manager, err := flowgraph.New(logger)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	graph, err := flowgraph.LoadGraphFile("onboarding.json")
//	if err != nil {
//	    return err
//	}
//	result, err := manager.Compile(graph, flowgraph.StrategyModuleList, "Onboarding")
//	execution, err := manager.Simulate(ctx, graph, map[string]interface{}{"name": "World"})
package flowgraph

import (
	"context"
	"log/slog"

	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/compiler"
	"github.com/rory-hayes121/tuesday-sub001/internal/adapters/loader"
	"github.com/rory-hayes121/tuesday-sub001/internal/core"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

// Manager wires the validator, both compilers, the simulator and the
// execution history.
type Manager = core.Manager

// Option customizes a Manager beyond what Config covers.
type Option = core.Option

type Graph = domain.Graph

type Node = domain.Node

type Edge = domain.Edge

// NodeType is one of NodeTypePrompt, NodeTypeTool, NodeTypeLogic,
// NodeTypeMemory or NodeTypeIntegration.
type NodeType = domain.NodeType

type Handle = domain.Handle

type Position = domain.Position

const (
	NodeTypePrompt      = domain.NodeTypePrompt
	NodeTypeTool        = domain.NodeTypeTool
	NodeTypeLogic       = domain.NodeTypeLogic
	NodeTypeMemory      = domain.NodeTypeMemory
	NodeTypeIntegration = domain.NodeTypeIntegration
)

// ValidationResult lists the errors and warnings found in a graph. IsValid
// is true when there are no errors.
type ValidationResult = domain.ValidationResult

type Issue = domain.Issue

type IssueKind = domain.IssueKind

// CompileResult carries the artifact of a compilation together with the
// errors and warnings it produced. Artifact is a *BranchMapArtifact or a
// *ModuleListArtifact.
type CompileResult = domain.CompileResult

type Artifact = domain.Artifact

type BranchMapArtifact = domain.BranchMapArtifact

type ModuleListArtifact = domain.ModuleListArtifact

type Module = domain.Module

const (
	StrategyBranchMap  = compiler.StrategyBranchMap
	StrategyModuleList = compiler.StrategyModuleList
)

// Execution is the trace of one simulated run.
type Execution = domain.Execution

type ExecutionStep = domain.ExecutionStep

type ExecutionStatus = domain.ExecutionStatus

type StepStatus = domain.StepStatus

// StepEvent is delivered to handlers registered with Manager.OnStep.
type StepEvent = domain.StepEvent

// NodeBody simulates one node type; see Manager.ReplaceBody.
type NodeBody = ports.NodeBody

type NodeBodyFunc = ports.NodeBodyFunc

// TextGenerator answers prompt nodes during simulation.
type TextGenerator = ports.TextGeneratorPort

type TextRequest = ports.TextRequest

type TextResponse = ports.TextResponse

type CredentialProvider = ports.CredentialPort

type Credential = ports.Credential

// ExecutionStore keeps finished execution traces.
type ExecutionStore = ports.ExecutionStorePort

// ExecutionContext describes the step a node body is running for.
type ExecutionContext = domain.ExecutionContext

var (
	ErrInvalidGraph      = domain.ErrInvalidGraph
	ErrUnknownStrategy   = domain.ErrUnknownStrategy
	ErrUnknownNodeType   = domain.ErrUnknownNodeType
	ErrExecutionNotFound = domain.ErrExecutionNotFound
	ErrUnsupportedFormat = domain.ErrUnsupportedFormat
)

type NodeError = domain.NodeError

type LoadError = domain.LoadError

// New creates a Manager with the default configuration. A nil logger
// discards all output.
func New(logger *slog.Logger, opts ...Option) (*Manager, error) {
	return core.New(logger, opts...)
}

// NewWithConfig creates a Manager from config. Zero-valued settings take
// their defaults; see DefaultConfig.
//
// Example:
//
//	config := flowgraph.NewConfigBuilder(logger).
//	    WithTraversal(flowgraph.TraversalWorklist).
//	    WithHistory(flowgraph.HistoryBadger, "./data/history").
//	    Build()
//	manager, err := flowgraph.NewWithConfig(config)
func NewWithConfig(config *Config, opts ...Option) (*Manager, error) {
	return core.NewWithConfig(config, opts...)
}

func WithTextGenerator(text TextGenerator) Option {
	return core.WithTextGenerator(text)
}

func WithCredentials(credentials CredentialProvider) Option {
	return core.WithCredentials(credentials)
}

func WithHistoryStore(store ExecutionStore) Option {
	return core.WithHistoryStore(store)
}

// LoadGraphFile reads a graph document, choosing the format by extension:
// .json, .yaml/.yml or .hcl. A document without a name is named after the
// file.
func LoadGraphFile(path string) (Graph, error) {
	return loader.New(nil).LoadFile(path)
}

func ParseGraphJSON(data []byte) (Graph, error) {
	return loader.NewJSONLoader().Parse(data, "")
}

func ParseGraphYAML(data []byte) (Graph, error) {
	return loader.NewYAMLLoader().Parse(data, "")
}

// ParseGraphHCL parses an HCL graph document. filename is used in
// diagnostics only.
func ParseGraphHCL(data []byte, filename string) (Graph, error) {
	return loader.NewHCLLoader().Parse(data, filename)
}

// GetExecutionContext returns the step description inside a NodeBody.
func GetExecutionContext(ctx context.Context) (*ExecutionContext, bool) {
	return domain.GetExecutionContext(ctx)
}

func IsInvalidGraph(err error) bool {
	return domain.IsInvalidGraph(err)
}

func IsNotFound(err error) bool {
	return domain.IsNotFound(err)
}
