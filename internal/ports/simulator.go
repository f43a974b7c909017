package ports

import (
	"context"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type SimulatorPort interface {
	Run(ctx context.Context, graph domain.Graph, input interface{}) *domain.Execution
}

// NodeBody simulates the work of one node type. The execution context is
// available through domain.GetExecutionContext.
type NodeBody interface {
	Execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error)
}

type NodeBodyFunc func(ctx context.Context, node domain.Node, input interface{}) (interface{}, error)

func (f NodeBodyFunc) Execute(ctx context.Context, node domain.Node, input interface{}) (interface{}, error) {
	return f(ctx, node, input)
}

type BodyRegistryPort interface {
	RegisterBody(nodeType domain.NodeType, body NodeBody) error
	ReplaceBody(nodeType domain.NodeType, body NodeBody)
	GetBody(nodeType domain.NodeType) (NodeBody, error)
	ListTypes() []domain.NodeType
}

type TextRequest struct {
	Instruction string  `json:"instruction"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

type TextResponse struct {
	Response   string `json:"response"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokensUsed"`
}

// TextGeneratorPort is the text-generation capability prompt nodes call.
type TextGeneratorPort interface {
	Generate(ctx context.Context, req TextRequest) (*TextResponse, error)
}

type Credential struct {
	IntegrationID string `json:"integrationId"`
	Scheme        string `json:"scheme"`
	Token         string `json:"-"`
}

type CredentialPort interface {
	Resolve(ctx context.Context, integrationID string) (*Credential, error)
}

// StepObserver is notified when a step starts and when it finishes.
type StepObserver func(event domain.StepEvent)
