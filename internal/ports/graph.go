package ports

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type ValidatorPort interface {
	Validate(graph domain.Graph) domain.ValidationResult
}

// ResolverPort derives downstream linkage from edges. Every compiler and the
// simulator share one implementation.
type ResolverPort interface {
	NextSteps(nodeID string, edges []domain.Edge) []string
	EntryNodes(nodes []domain.Node, edges []domain.Edge) []domain.Node
	Predecessors(nodeID string, edges []domain.Edge) []string
	BranchTargets(nodeID string, edges []domain.Edge) map[string][]string
}

type ConditionEvaluatorPort interface {
	Evaluate(expression string, context interface{}) bool
}
