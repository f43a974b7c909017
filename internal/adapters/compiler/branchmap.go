package compiler

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
)

// BranchMapCompiler produces a single flow object: the trigger plus every
// other node as an action keyed by node id, linked through inline
// branch-key -> next-node maps.
type BranchMapCompiler struct {
	pipeline *Pipeline
}

func NewBranchMap(pipeline *Pipeline) *BranchMapCompiler {
	return &BranchMapCompiler{pipeline: pipeline}
}

func (c *BranchMapCompiler) Strategy() string {
	return StrategyBranchMap
}

func (c *BranchMapCompiler) Compile(graph domain.Graph, name string) *domain.CompileResult {
	result := newResult(StrategyBranchMap)
	result.Artifact = &domain.BranchMapArtifact{
		Name:          name,
		SchemaVersion: domain.ArtifactSchemaVersion,
		Actions:       map[string]domain.BranchMapAction{},
	}

	p, ok := c.pipeline.prepare(graph, result)
	if !ok {
		return result
	}

	artifact := &domain.BranchMapArtifact{
		Name:          name,
		SchemaVersion: domain.ArtifactSchemaVersion,
		Actions:       make(map[string]domain.BranchMapAction, len(p.rest)),
	}

	branches, next := c.pipeline.linkage(p.trigger, graph.Edges, true, result)
	artifact.Trigger = &domain.BranchMapTrigger{
		ID:          p.trigger.ID,
		Type:        p.trigger.Type,
		Kind:        c.pipeline.kind(p.trigger),
		Description: p.trigger.Description,
		Inputs:      copyConfig(p.trigger.Config),
		Script:      c.pipeline.script(p.trigger, ports.FlavorBranchMap, result),
		Branches:    branches,
		Next:        next,
	}

	for _, node := range p.rest {
		branches, next := c.pipeline.linkage(node, graph.Edges, true, result)
		artifact.Actions[node.ID] = domain.BranchMapAction{
			ID:          node.ID,
			Type:        node.Type,
			Kind:        c.pipeline.kind(node),
			Description: node.Description,
			Inputs:      copyConfig(node.Config),
			Script:      c.pipeline.script(node, ports.FlavorBranchMap, result),
			Branches:    branches,
			Next:        next,
		}
	}

	if !result.Succeeded() {
		return result
	}
	c.pipeline.checkErrorHandling(graph, result)
	result.Artifact = artifact
	return result
}
