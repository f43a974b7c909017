package compiler

import (
	"fmt"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

const (
	flowInputExpr     = "{{flow.input}}"
	resultsExprFormat = "{{results.%s}}"
	triggerTypeManual = "manual"
)

// ModuleListCompiler produces an ordered list of generated modules. Each
// module declares input-transform expressions naming the upstream results
// it reads.
type ModuleListCompiler struct {
	pipeline *Pipeline
}

func NewModuleList(pipeline *Pipeline) *ModuleListCompiler {
	return &ModuleListCompiler{pipeline: pipeline}
}

func (c *ModuleListCompiler) Strategy() string {
	return StrategyModuleList
}

func (c *ModuleListCompiler) Compile(graph domain.Graph, name string) *domain.CompileResult {
	result := newResult(StrategyModuleList)
	result.Artifact = &domain.ModuleListArtifact{
		Name:          name,
		SchemaVersion: domain.ArtifactSchemaVersion,
		Modules:       []domain.Module{},
	}

	p, ok := c.pipeline.prepare(graph, result)
	if !ok {
		return result
	}

	artifact := &domain.ModuleListArtifact{
		Name:          name,
		SchemaVersion: domain.ArtifactSchemaVersion,
		Modules:       make([]domain.Module, 0, len(p.rest)),
	}

	_, triggerNext := c.pipeline.linkage(p.trigger, graph.Edges, false, result)
	artifact.Trigger = &domain.ModuleListTrigger{
		Type:   triggerTypeManual,
		Entry:  p.trigger.ID,
		Script: c.pipeline.script(p.trigger, ports.FlavorModuleList, result),
		Next:   triggerNext,
	}

	for _, node := range p.rest {
		branches, next := c.pipeline.linkage(node, graph.Edges, false, result)
		artifact.Modules = append(artifact.Modules, domain.Module{
			ID:       node.ID,
			Name:     node.DisplayName(),
			Type:     node.Type,
			Script:   c.pipeline.script(node, ports.FlavorModuleList, result),
			Inputs:   c.inputs(node.ID, graph.Edges),
			Branches: branches,
			Next:     next,
		})
	}

	if !result.Succeeded() {
		return result
	}
	c.pipeline.checkErrorHandling(graph, result)
	result.Artifact = artifact
	return result
}

// inputs maps input names to the expressions feeding them: the flow input for
// modules without predecessors, otherwise one results reference per incoming
// edge named input, input2, input3 ...
func (c *ModuleListCompiler) inputs(nodeID string, edges []domain.Edge) map[string]string {
	sources := c.pipeline.resolver.Predecessors(nodeID, edges)
	if len(sources) == 0 {
		return map[string]string{"input": flowInputExpr}
	}
	inputs := make(map[string]string, len(sources))
	for i, source := range sources {
		key := "input"
		if i > 0 {
			key = fmt.Sprintf("input%d", i+1)
		}
		inputs[key] = fmt.Sprintf(resultsExprFormat, source)
	}
	return inputs
}
