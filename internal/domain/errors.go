package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGraph       = errors.New("invalid graph")
	ErrUnknownStrategy    = errors.New("unknown compiler strategy")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrExecutionNotFound  = errors.New("execution not found")
	ErrStoreClosed        = errors.New("execution store closed")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnsupportedFormat  = errors.New("unsupported graph format")
	ErrCredentialNotFound = errors.New("credential not found")
)

// GraphError carries the validation issues that blocked a call.
type GraphError struct {
	Issues  []Issue
	Message string
}

func (e *GraphError) Error() string {
	return "invalid graph: " + e.Message
}

func (e *GraphError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// NodeError is the failure of a single node body during simulation.
type NodeError struct {
	NodeID   string
	NodeType NodeType
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s (%s): %v", e.NodeID, e.NodeType, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

func NewNodeError(node Node, err error) *NodeError {
	return &NodeError{
		NodeID:   node.ID,
		NodeType: node.Type,
		Err:      err,
	}
}

type LoadError struct {
	Path   string
	Format string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s graph: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("load %s graph %s: %v", e.Format, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func NewLoadError(path, format string, err error) *LoadError {
	return &LoadError{
		Path:   path,
		Format: format,
		Err:    err,
	}
}

func IsInvalidGraph(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

func IsNodeError(err error) bool {
	var nodeErr *NodeError
	return errors.As(err, &nodeErr)
}

func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}
