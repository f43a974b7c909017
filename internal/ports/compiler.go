package ports

import (
	"github.com/rory-hayes121/tuesday-sub001/internal/domain"
)

type CompilerPort interface {
	Strategy() string
	Compile(graph domain.Graph, name string) *domain.CompileResult
}

// ScriptFlavor selects the runtime conventions a generated body follows.
type ScriptFlavor string

const (
	FlavorBranchMap  ScriptFlavor = "branch-map"
	FlavorModuleList ScriptFlavor = "module-list"
)

type ScriptGeneratorPort interface {
	Generate(node domain.Node, flavor ScriptFlavor) (string, error)
	Kind(node domain.Node) string
	Branches(node domain.Node) []string
}
