// Package resolver derives downstream linkage from a graph's edges. The
// compilers and the simulator all consume it so next-step semantics stay
// identical between compiled artifacts and simulated runs.
package resolver

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

func (r *Resolver) NextSteps(nodeID string, edges []domain.Edge) []string {
	return NextSteps(nodeID, edges)
}

func (r *Resolver) EntryNodes(nodes []domain.Node, edges []domain.Edge) []domain.Node {
	return EntryNodes(nodes, edges)
}

func (r *Resolver) Predecessors(nodeID string, edges []domain.Edge) []string {
	return Predecessors(nodeID, edges)
}

func (r *Resolver) BranchTargets(nodeID string, edges []domain.Edge) map[string][]string {
	return BranchTargets(nodeID, edges)
}

// NextSteps returns the targets of nodeID's outgoing edges in edge order.
// Parallel edges to the same target resolve once.
func NextSteps(nodeID string, edges []domain.Edge) []string {
	var targets []string
	seen := make(map[string]struct{})
	for _, edge := range edges {
		if edge.Source != nodeID {
			continue
		}
		if _, dup := seen[edge.Target]; dup {
			continue
		}
		seen[edge.Target] = struct{}{}
		targets = append(targets, edge.Target)
	}
	return targets
}

// EntryNodes returns the nodes without an incoming edge, in node order.
func EntryNodes(nodes []domain.Node, edges []domain.Edge) []domain.Node {
	incoming := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		incoming[edge.Target] = struct{}{}
	}

	var entries []domain.Node
	for _, node := range nodes {
		if _, has := incoming[node.ID]; !has {
			entries = append(entries, node)
		}
	}
	return entries
}

// Predecessors returns the sources of nodeID's incoming edges in edge order,
// one entry per edge.
func Predecessors(nodeID string, edges []domain.Edge) []string {
	var sources []string
	for _, edge := range edges {
		if edge.Target == nodeID {
			sources = append(sources, edge.Source)
		}
	}
	return sources
}

// BranchTargets groups nodeID's outgoing targets by source handle. Unlabeled
// edges are grouped under "".
func BranchTargets(nodeID string, edges []domain.Edge) map[string][]string {
	branches := make(map[string][]string)
	for _, edge := range edges {
		if edge.Source != nodeID {
			continue
		}
		key := edge.SourceHandle
		if !contains(branches[key], edge.Target) {
			branches[key] = append(branches[key], edge.Target)
		}
	}
	return branches
}

// OutgoingEdges returns nodeID's outgoing edges in declaration order.
func OutgoingEdges(nodeID string, edges []domain.Edge) []domain.Edge {
	var out []domain.Edge
	for _, edge := range edges {
		if edge.Source == nodeID {
			out = append(out, edge)
		}
	}
	return out
}

// HasIncoming reports whether any edge targets nodeID.
func HasIncoming(nodeID string, edges []domain.Edge) bool {
	for _, edge := range edges {
		if edge.Target == nodeID {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
