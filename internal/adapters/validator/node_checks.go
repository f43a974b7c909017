package validator

import (
	"fmt"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

// checkNodeConfig records one error per missing required field. Every node
// type is handled in this single switch.
func checkNodeConfig(node domain.Node, result *domain.ValidationResult) {
	switch node.Type {
	case domain.NodeTypePrompt:
		require(node, domain.ConfigInstruction, "prompt instruction is required", result)
	case domain.NodeTypeTool:
		require(node, domain.ConfigService, "tool service must be configured", result)
		if node.ConfigString(domain.ConfigService) == domain.ServiceHTTP {
			require(node, domain.ConfigURL, "HTTP tool requires a URL", result)
		}
	case domain.NodeTypeLogic:
		require(node, domain.ConfigCondition, "logic condition is required", result)
	case domain.NodeTypeMemory:
		require(node, domain.ConfigKey, "memory key is required", result)
	case domain.NodeTypeIntegration:
		require(node, domain.ConfigIntegration, "integration must be selected", result)
	default:
		result.AddError(node.ID, domain.IssueUnknownType,
			fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type))
	}
}

func require(node domain.Node, key, message string, result *domain.ValidationResult) {
	if node.ConfigString(key) == "" {
		result.AddError(node.ID, domain.IssueMissingField, fmt.Sprintf("%s: %s", node.DisplayName(), message))
	}
}
