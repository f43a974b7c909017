package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType is the closed set of node kinds a workflow graph can contain.
type NodeType string

const (
	NodeTypePrompt      NodeType = "prompt"
	NodeTypeTool        NodeType = "tool"
	NodeTypeLogic       NodeType = "logic"
	NodeTypeMemory      NodeType = "memory"
	NodeTypeIntegration NodeType = "integration"
)

// NodeTypes lists every supported node type in declaration order.
var NodeTypes = []NodeType{
	NodeTypePrompt,
	NodeTypeTool,
	NodeTypeLogic,
	NodeTypeMemory,
	NodeTypeIntegration,
}

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypePrompt, NodeTypeTool, NodeTypeLogic, NodeTypeMemory, NodeTypeIntegration:
		return true
	}
	return false
}

func (t NodeType) String() string {
	return string(t)
}

// Config keys read from Node.Config.
const (
	ConfigInstruction  = "instruction"
	ConfigModel        = "model"
	ConfigTemperature  = "temperature"
	ConfigMaxTokens    = "maxTokens"
	ConfigService      = "service"
	ConfigAction       = "action"
	ConfigURL          = "url"
	ConfigMethod       = "method"
	ConfigHeaders      = "headers"
	ConfigBody         = "body"
	ConfigCondition    = "condition"
	ConfigLogicType    = "logicType"
	ConfigKey          = "key"
	ConfigOperation    = "operation"
	ConfigScope        = "scope"
	ConfigValue        = "value"
	ConfigIntegration  = "integration"
	ConfigEndpoint     = "endpoint"
	ConfigPayload      = "payload"
	ConfigFieldMapping = "fieldMapping"
	ConfigOnError      = "onError"
)

// ServiceHTTP is the generic HTTP tool service identifier.
const ServiceHTTP = "http"

const (
	LogicTypeCondition = "condition"
	LogicTypeFilter    = "filter"
)

const (
	MemoryStore    = "store"
	MemoryRetrieve = "retrieve"
	MemoryUpdate   = "update"
	MemoryDelete   = "delete"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Handle names one input or output connection point of a node.
type Handle struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type Node struct {
	ID          string                 `json:"id"`
	Type        NodeType               `json:"type"`
	Label       string                 `json:"label,omitempty"`
	Description string                 `json:"description,omitempty"`
	Config      map[string]interface{} `json:"config,omitempty"`
	Position    Position               `json:"position"`
	Inputs      []Handle               `json:"inputs,omitempty"`
	Outputs     []Handle               `json:"outputs,omitempty"`
}

// DisplayName returns the label when present, the id otherwise.
func (n Node) DisplayName() string {
	if strings.TrimSpace(n.Label) != "" {
		return n.Label
	}
	return n.ID
}

// ConfigString returns the config value for key rendered as a trimmed string.
// Missing and nil values yield "".
func (n Node) ConfigString(key string) string {
	v, ok := n.Config[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func (n Node) ConfigStringOr(key, fallback string) string {
	if s := n.ConfigString(key); s != "" {
		return s
	}
	return fallback
}

func (n Node) ConfigFloat(key string, fallback float64) float64 {
	v, ok := n.Config[key]
	if !ok || v == nil {
		return fallback
	}
	switch f := v.(type) {
	case float64:
		return f
	case float32:
		return float64(f)
	case int:
		return float64(f)
	case int64:
		return float64(f)
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func (n Node) ConfigInt(key string, fallback int) int {
	return int(n.ConfigFloat(key, float64(fallback)))
}

func (n Node) ConfigMap(key string) map[string]interface{} {
	if m, ok := n.Config[key].(map[string]interface{}); ok {
		return m
	}
	return nil
}

func (n Node) HasConfig(key string) bool {
	v, ok := n.Config[key]
	return ok && v != nil
}

type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Graph is the pair (nodes, edges) every component operates on. Nodes are
// addressed by id; their order is significant for entry-point selection.
type Graph struct {
	Name  string `json:"name,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

func NewGraph(nodes []Node, edges []Edge) Graph {
	return Graph{Nodes: nodes, Edges: edges}
}

func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Index returns the nodes keyed by id. Later duplicates do not replace the
// first occurrence.
func (g Graph) Index() map[string]Node {
	index := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, exists := index[n.ID]; !exists {
			index[n.ID] = n
		}
	}
	return index
}
