package domain

import "context"

type contextKey string

const ExecutionContextKey contextKey = "flowgraph:execution_context"

// ExecutionContext is the runtime environment injected into a node body:
// which execution and node it belongs to and the service configuration it
// may consult.
type ExecutionContext struct {
	ExecutionID string
	GraphName   string
	NodeID      string
	NodeType    NodeType
	Attempt     int
	Services    ServicesConfig
	FlowInput   interface{}
}

func WithExecutionContext(ctx context.Context, execCtx *ExecutionContext) context.Context {
	return context.WithValue(ctx, ExecutionContextKey, execCtx)
}

func GetExecutionContext(ctx context.Context) (*ExecutionContext, bool) {
	execCtx, ok := ctx.Value(ExecutionContextKey).(*ExecutionContext)
	return execCtx, ok
}
