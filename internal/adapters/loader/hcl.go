package loader

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

const FormatHCL = "hcl"

// graphFile is the top-level schema of an HCL graph document:
//
//	name = "Onboarding"
//
//	node "welcome" {
//	  type   = "prompt"
//	  config = { instruction = "Welcome {{name}}" }
//	}
//
//	edge "e1" {
//	  source = "welcome"
//	  target = "notify"
//	}
type graphFile struct {
	Name  string      `hcl:"name,optional"`
	Nodes []*nodeBody `hcl:"node,block"`
	Edges []*edgeBody `hcl:"edge,block"`
}

type nodeBody struct {
	ID          string         `hcl:"id,label"`
	Type        string         `hcl:"type"`
	Label       string         `hcl:"label,optional"`
	Description string         `hcl:"description,optional"`
	Config      hcl.Expression `hcl:"config,optional"`
	Position    []float64      `hcl:"position,optional"`
	Inputs      []string       `hcl:"inputs,optional"`
	Outputs     []string       `hcl:"outputs,optional"`
}

type edgeBody struct {
	ID           string `hcl:"id,label"`
	Source       string `hcl:"source"`
	Target       string `hcl:"target"`
	SourceHandle string `hcl:"source_handle,optional"`
	TargetHandle string `hcl:"target_handle,optional"`
}

type HCLLoader struct{}

func NewHCLLoader() *HCLLoader {
	return &HCLLoader{}
}

func (l *HCLLoader) Format() string {
	return FormatHCL
}

func (l *HCLLoader) Parse(data []byte, filename string) (domain.Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return domain.Graph{}, domain.NewLoadError(filename, FormatHCL, diags)
	}

	var root graphFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return domain.Graph{}, domain.NewLoadError(filename, FormatHCL, diags)
	}

	graph := domain.Graph{
		Name:  root.Name,
		Nodes: make([]domain.Node, 0, len(root.Nodes)),
		Edges: make([]domain.Edge, 0, len(root.Edges)),
	}
	for _, n := range root.Nodes {
		node, err := translateNode(n)
		if err != nil {
			return domain.Graph{}, domain.NewLoadError(filename, FormatHCL, err)
		}
		graph.Nodes = append(graph.Nodes, node)
	}
	for _, e := range root.Edges {
		graph.Edges = append(graph.Edges, domain.Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return graph, nil
}

func translateNode(n *nodeBody) (domain.Node, error) {
	node := domain.Node{
		ID:          n.ID,
		Type:        domain.NodeType(n.Type),
		Label:       n.Label,
		Description: n.Description,
		Inputs:      handles(n.Inputs),
		Outputs:     handles(n.Outputs),
	}
	if len(n.Position) == 2 {
		node.Position = domain.Position{X: n.Position[0], Y: n.Position[1]}
	}

	if !isExprDefined(n.Config) {
		return node, nil
	}
	value, diags := n.Config.Value(nil)
	if diags.HasErrors() {
		return domain.Node{}, fmt.Errorf("node %q config: %w", n.ID, diags)
	}
	native, err := ctyToNative(value)
	if err != nil {
		return domain.Node{}, fmt.Errorf("node %q config: %w", n.ID, err)
	}
	if native == nil {
		return node, nil
	}
	config, ok := native.(map[string]interface{})
	if !ok {
		return domain.Node{}, fmt.Errorf("node %q config must be an object, got %s", n.ID, value.Type().FriendlyName())
	}
	node.Config = config
	return node, nil
}

func handles(ids []string) []domain.Handle {
	if len(ids) == 0 {
		return nil
	}
	out := make([]domain.Handle, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Handle{ID: id, Label: id})
	}
	return out
}

// isExprDefined reports whether an optional attribute was present in the
// source. Omitted attributes decode to a zero-width placeholder expression.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// ctyToNative converts a cty value into the plain Go values JSON decoding
// would produce.
func ctyToNative(v cty.Value) (interface{}, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("convert number: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		items := make([]interface{}, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			items = append(items, native)
		}
		return items, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]interface{})
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			native, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
