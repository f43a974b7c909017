package domain

import "strings"

type IssueKind string

const (
	IssueEmptyGraph         IssueKind = "empty_graph"
	IssueDuplicateNode      IssueKind = "duplicate_node"
	IssueInvalidEdge        IssueKind = "invalid_edge"
	IssueCycle              IssueKind = "cycle"
	IssueMissingEntry       IssueKind = "missing_entry"
	IssueUnknownType        IssueKind = "unknown_type"
	IssueMissingField       IssueKind = "missing_field"
	IssueGeneration         IssueKind = "generation"
	IssueDisconnected       IssueKind = "disconnected"
	IssueGraphSize          IssueKind = "graph_size"
	IssueMissingDescription IssueKind = "missing_description"
	IssueMultipleEntries    IssueKind = "multiple_entries"
	IssueBranchTarget       IssueKind = "branch_target"
	IssueErrorHandling      IssueKind = "error_handling"
)

// Issue is one validation or compilation finding. NodeID is empty for
// graph-level findings.
type Issue struct {
	NodeID  string    `json:"nodeId,omitempty"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

type ValidationResult struct {
	IsValid  bool    `json:"isValid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

func NewValidationResult() ValidationResult {
	return ValidationResult{
		IsValid:  true,
		Errors:   []Issue{},
		Warnings: []Issue{},
	}
}

func (r *ValidationResult) AddError(nodeID string, kind IssueKind, message string) {
	r.Errors = append(r.Errors, Issue{NodeID: nodeID, Kind: kind, Message: message})
	r.IsValid = false
}

func (r *ValidationResult) AddWarning(nodeID string, kind IssueKind, message string) {
	r.Warnings = append(r.Warnings, Issue{NodeID: nodeID, Kind: kind, Message: message})
}

func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasError reports whether an error of the given kind was recorded.
func (r ValidationResult) HasError(kind IssueKind) bool {
	for _, issue := range r.Errors {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// Err folds the recorded errors into a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		messages = append(messages, issue.Message)
	}
	return &GraphError{Issues: r.Errors, Message: strings.Join(messages, "; ")}
}
