// Package generator renders the script body executed by a back end for each
// node. Rendering is deterministic and side-effect free: the compiler never
// runs what it generates.
package generator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
	"github.com/rory-hayes121/tuesday-sub001/internal/ports"
	"github.com/rory-hayes121/tuesday-sub001/internal/xjson"
)

// Options are compile-time defaults embedded into prompt bodies.
type Options struct {
	DefaultModel       string
	DefaultTemperature float64
	DefaultMaxTokens   int
}

func OptionsFromConfig(cfg domain.CompilerConfig) Options {
	return Options{
		DefaultModel:       cfg.DefaultModel,
		DefaultTemperature: cfg.DefaultTemperature,
		DefaultMaxTokens:   cfg.DefaultMaxTokens,
	}
}

type Generator struct {
	opts Options
}

func New(opts Options) *Generator {
	return &Generator{opts: opts}
}

type scriptData struct {
	ID         string
	Name       string
	Kind       string
	Config     map[string]interface{}
	Defaults   map[string]interface{}
	Condition  string
	ModuleList bool
	HTTP       bool
	Filter     bool
}

// Generate renders the body for node in the given flavor.
func (g *Generator) Generate(node domain.Node, flavor ports.ScriptFlavor) (string, error) {
	data := scriptData{
		ID:         node.ID,
		Name:       node.DisplayName(),
		Kind:       g.Kind(node),
		Config:     node.Config,
		ModuleList: flavor == ports.FlavorModuleList,
	}
	if data.Config == nil {
		data.Config = map[string]interface{}{}
	}

	var tmpl *template.Template
	switch node.Type {
	case domain.NodeTypePrompt:
		tmpl = promptTemplate
		data.Defaults = map[string]interface{}{
			"model":       g.opts.DefaultModel,
			"temperature": g.opts.DefaultTemperature,
			"maxTokens":   g.opts.DefaultMaxTokens,
		}
	case domain.NodeTypeTool:
		tmpl = toolTemplate
		data.HTTP = node.ConfigString(domain.ConfigService) == domain.ServiceHTTP
	case domain.NodeTypeLogic:
		tmpl = logicTemplate
		data.Condition = node.ConfigString(domain.ConfigCondition)
		data.Filter = node.ConfigString(domain.ConfigLogicType) == domain.LogicTypeFilter
	case domain.NodeTypeMemory:
		tmpl = memoryTemplate
	case domain.NodeTypeIntegration:
		tmpl = integrationTemplate
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, node.Type)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s script for node %s: %w", node.Type, node.ID, err)
	}
	return buf.String(), nil
}

// Kind names the action a node compiles to, e.g. "http.request".
func (g *Generator) Kind(node domain.Node) string {
	switch node.Type {
	case domain.NodeTypePrompt:
		return "ai.prompt"
	case domain.NodeTypeTool:
		service := node.ConfigString(domain.ConfigService)
		if service == domain.ServiceHTTP {
			return "http.request"
		}
		return "tool." + slug(service)
	case domain.NodeTypeLogic:
		if node.ConfigString(domain.ConfigLogicType) == domain.LogicTypeFilter {
			return "control.filter"
		}
		return "control.condition"
	case domain.NodeTypeMemory:
		return "memory." + node.ConfigStringOr(domain.ConfigOperation, domain.MemoryStore)
	case domain.NodeTypeIntegration:
		return "integration." + slug(node.ConfigString(domain.ConfigIntegration))
	}
	return "unknown"
}

// Branches lists the named branches a node's descriptor declares. Only logic
// condition nodes branch.
func (g *Generator) Branches(node domain.Node) []string {
	if node.Type == domain.NodeTypeLogic && node.ConfigString(domain.ConfigLogicType) != domain.LogicTypeFilter {
		return []string{domain.BranchTrue, domain.BranchFalse}
	}
	return nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "generic"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}

var funcs = template.FuncMap{
	"json": func(v interface{}) (string, error) {
		var buf bytes.Buffer
		enc := xjson.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		return strings.TrimSuffix(buf.String(), "\n"), nil
	},
	"comment": func(s string) string {
		return strings.NewReplacer("\r", " ", "\n", " ", "*/", "* /").Replace(s)
	},
}

func parse(name, source string) *template.Template {
	return template.Must(template.New(name).Delims("[[", "]]").Funcs(funcs).Parse(source))
}

var (
	promptTemplate      = parse("prompt", promptSource)
	toolTemplate        = parse("tool", toolSource)
	logicTemplate       = parse("logic", logicSource)
	memoryTemplate      = parse("memory", memorySource)
	integrationTemplate = parse("integration", integrationSource)
)
