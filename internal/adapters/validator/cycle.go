package validator

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

// hasCycle runs a depth-first search from every node that is not yet fully
// explored. A back edge into the current stack is a cycle. Edges pointing at
// unknown nodes are ignored; they are reported separately.
func hasCycle(graph domain.Graph) bool {
	index := graph.Index()
	adjacency := make(map[string][]string, len(index))
	for _, edge := range graph.Edges {
		if _, ok := index[edge.Source]; !ok {
			continue
		}
		if _, ok := index[edge.Target]; !ok {
			continue
		}
		adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
	}

	onStack := make(map[string]bool, len(index))
	explored := make(map[string]bool, len(index))

	var visit func(id string) bool
	visit = func(id string) bool {
		onStack[id] = true
		for _, next := range adjacency[id] {
			if onStack[next] {
				return true
			}
			if explored[next] {
				continue
			}
			if visit(next) {
				return true
			}
		}
		onStack[id] = false
		explored[id] = true
		return false
	}

	for _, node := range graph.Nodes {
		if explored[node.ID] {
			continue
		}
		if visit(node.ID) {
			return true
		}
	}
	return false
}
